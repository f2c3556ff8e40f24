package main

import "github.com/zjrosen/goldcheck/cmd"

func main() {
	cmd.Execute()
}
