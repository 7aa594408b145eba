package main

import "github.com/mthec/crafter/internal/cli"

func main() {
	cli.Execute()
}
