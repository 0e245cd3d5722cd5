// Package main is the entry point for the txledger CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/txledger/cmd/txledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
