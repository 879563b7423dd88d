package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errAborted) {
			fmt.Fprintln(os.Stderr, "pick:", err)
		}
		os.Exit(1)
	}
}
