package main

import "github.com/mcoot/mudaccounts/internal/cli"

func main() {
	cli.Execute()
}
