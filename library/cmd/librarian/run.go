package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

var errUnknownCommand = errors.New("unknown command")

// subcommand executes one use case and returns the value to print.
type subcommand func(ctx context.Context, app *application, args []string) (any, error)

type subcommandSpec struct {
	summary string
	run     subcommand
}

func subcommands() map[string]subcommandSpec {
	return map[string]subcommandSpec{
		"migrate":          {"create the database schema", runMigrate},
		"add-book":         {"add a book to the catalog", runAddBook},
		"register-user":    {"register a user", runRegisterUser},
		"reserve":          {"reserve up to three books for a user", runReserve},
		"cancel":           {"cancel an active reservation", runCancel},
		"reservations":     {"list the reservations of a user", runReservationsByUser},
		"reservation":      {"show one reservation", runReservationDetails},
		"all-reservations": {"list the reservations of all users", runAllReservations},
		"books":            {"list the catalog or look up a book by ISBN", runBooks},
		"book":             {"show one book", runBookDetails},
		"users":            {"list registered users", runUsers},
		"user":             {"show one registered user", runUserDetails},
		"sweep":            {"expire reservations older than the hold period", runSweep},
		"daemon":           {"run the expiry sweep on a schedule until interrupted", runDaemon},
	}
}

func usage() string {
	specs := subcommands()
	names := make([]string, 0, len(specs))

	for name := range specs {
		names = append(names, name)
	}

	sort.Strings(names)

	var b strings.Builder

	b.WriteString("usage: librarian [global flags] <command> [flags]\n\ncommands:\n")

	for _, name := range names {
		fmt.Fprintf(&b, "  %-17s %s\n", name, specs[name].summary)
	}

	return b.String()
}

// run parses the arguments, wires the application and executes one subcommand.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	s, rest, err := parseSettings(args)
	if err != nil {
		return writeError(stderr, err, time.Now())
	}

	if len(rest) == 0 {
		_, _ = io.WriteString(stderr, usage())
		return exitClientError
	}

	inst, err := newInstruments(ctx, s)
	if err != nil {
		return writeError(stderr, err, time.Now())
	}
	defer func() { _ = inst.shutdown() }()

	store, closeStore, err := openStore(ctx, s, inst, time.Now)
	if err != nil {
		inst.logger.Error("opening record store failed", "error", err.Error(), "engine", s.engine)
		return writeError(stderr, err, time.Now())
	}
	defer closeStore()

	app, err := newApplication(ctx, store, inst, s.cacheSize, time.Now)
	if err != nil {
		inst.logger.Error("wiring application failed", "error", err.Error())
		return writeError(stderr, err, time.Now())
	}

	return execute(ctx, app, rest, stdout, stderr)
}

// execute runs the subcommand named by args[0] against app.
func execute(ctx context.Context, app *application, args []string, stdout, stderr io.Writer) int {
	spec, ok := subcommands()[args[0]]
	if !ok {
		return writeError(stderr, usageError(fmt.Errorf("%w %q", errUnknownCommand, args[0])), app.clock())
	}

	result, err := spec.run(ctx, app, args[1:])
	if err != nil {
		if exitCodeOf(statusOf(err)) == exitInternalError {
			app.inst.logger.Error("command failed", "command", args[0], "error", err.Error())
		}

		return writeError(stderr, err, app.clock())
	}

	if err := writeJSON(stdout, result); err != nil {
		app.inst.logger.Error("writing output failed", "error", err.Error())
		return exitInternalError
	}

	return exitOK
}
