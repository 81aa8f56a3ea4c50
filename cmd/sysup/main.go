package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sysup-io/sysup/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exit *cli.ExitCodeError
		if errors.As(err, &exit) {
			// The outcome summary has already been printed.
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
