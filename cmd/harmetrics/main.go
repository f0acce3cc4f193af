package main

import (
	"fmt"
	"os"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/server"
)

func main() {
	err := core.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	p := server.NewEntryPoint(&core.Config)
	p.Run()
}
