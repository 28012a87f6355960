package main

import "github.com/devicelab-dev/aviary-e2e/pkg/cli"

func main() {
	cli.Execute()
}
