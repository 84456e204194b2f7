package main

import "github.com/liangjiangliang/okx-trading1-sub001/cmd"

func main() {
	cmd.Execute()
}
