// Command ddbexpr compiles DynamoDB request documents into expression
// strings and placeholder side tables.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/ddbexpr/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Commands print ExitErrors themselves.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
