package main

import (
	"errors"
	"fmt"
	"os"

	"codeexpert_e2e/presentation/terminal"
)

func main() {
	termInterface, err := terminal.NewTerminalInterface(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	err = termInterface.Run()
	if cerr := termInterface.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Failed to close browser: %v\n", cerr)
	}
	if err != nil {
		if !errors.Is(err, terminal.ErrScenariosFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
