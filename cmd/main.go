package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fluttercommunity/android-id/internal/logger"
	"github.com/fluttercommunity/android-id/internal/utils"
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := utils.SetupContext(context.Background())
	defer cancel()

	// a command that fails skips PersistentPostRunE, so close the audit log here too
	defer func() {
		if err := logger.CloseAuditLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: close audit log: %v\n", err)
		}
	}()

	return NewRootCommand().ExecuteContext(ctx)
}
