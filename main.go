package main

import (
	"os"

	"github.com/gido-dev/gido/cmd"
	"github.com/gido-dev/gido/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
