package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bassamadnan/gmailsend/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cli.DefaultConfig()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gmailsend: %v\n", err)
		stop()
		os.Exit(1)
	}
}
