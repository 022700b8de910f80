package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// BuildVersion is set at build time via -ldflags "-X main.BuildVersion=...".
var BuildVersion = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		}
		os.Exit(1)
	}
}
