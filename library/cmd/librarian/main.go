// Command librarian operates the book reservation library from the command line.
//
// Every subcommand prints its result as JSON on stdout. Failures print a JSON error body and exit with
// status 1 for rejected requests and status 2 for internal errors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
