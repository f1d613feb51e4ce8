package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zsiec/tomitake/internal/transfer"
)

var version = "dev"

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err != nil && !errors.Is(err, context.Canceled) && transfer.StatusOf(err) != transfer.StatusCancelled {
		fmt.Fprintln(os.Stderr, "tomitake:", transfer.Describe(err))
	}
	os.Exit(transfer.ExitCode(err))
}
