package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/svcstorego/internal/app"
	"github.com/vk/svcstorego/internal/cli"
)

// main is the entrypoint for the svcstore binary.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// Module registration panics on programmer error; recover so the user
	// still gets a clean exit message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	ctx := context.Background()
	storeApp, err := app.NewApp(ctx, outW, appConfig)
	if err != nil {
		return err
	}
	defer storeApp.Close()

	batch, err := storeApp.Run(ctx, appConfig)
	if err != nil {
		return err
	}

	for _, desc := range batch.Deployed {
		fmt.Fprintf(outW, "deployed %s (active=%v, hash=%s)\n", desc.Identity, desc.IsActive, desc.Provenance.Hash)
	}
	if len(batch.Errors) > 0 {
		return &cli.ExitError{Code: 3, Message: fmt.Sprintf("%d import item(s) failed, see logs", len(batch.Errors))}
	}
	return nil
}
