// Command aerbatch characterises noise models and runs circuit batches on
// simulator backends.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/aerbatch/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Commands print their own formatted errors; flag and argument
		// errors from cobra do not.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
