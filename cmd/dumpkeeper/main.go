package main

import "github.com/raoulx24/dumpkeeper/internal/cli"

func main() {
	cli.Execute()
}
