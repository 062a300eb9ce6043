package main

import (
	"os"

	"github.com/odyssey-erp/admindash/cmd/listctl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
