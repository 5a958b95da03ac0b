package main

import (
	"fmt"
	"os"

	"github.com/orchestrator-tools/deploy/cmd/deployer/cmd"
)

func main() {
	streams := cmd.IOStreams{Out: os.Stdout, ErrOut: os.Stderr}
	rootCmd := cmd.NewRootCmd(streams)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, err)
		os.Exit(1)
	}
}
