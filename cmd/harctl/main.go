package main

import "github.com/alonana/harmetrics/cmd/harctl/cli"

func main() {
	cli.Execute()
}
