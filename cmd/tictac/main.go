package main

import "github.com/mcoot/tictacmatch-go/internal/cli"

func main() {
	cli.Execute()
}
