package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/config"
	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/readcache"
)

const (
	serviceName    = "librarian"
	serviceVersion = "1.0.0"

	envEngine = "LIBRARY_ENGINE"

	engineMemory  = "memory"
	enginePGXPool = "pgx.pool"
	engineSQLDB   = "sql.db"
	engineSQLX    = "sqlx.db"

	defaultTxTimeout = 5 * time.Second
)

var errUnknownEngine = errors.New("unknown engine, use one of memory, pgx.pool, sql.db, sqlx.db")

// settings are the global flags shared by all subcommands.
type settings struct {
	engine        string
	dsn           string
	replicaDSN    string
	txTimeout     time.Duration
	cacheSize     int
	logLevel      string
	observability bool
	otlpEndpoint  string
}

func defaultEngine() string {
	if engine := os.Getenv(envEngine); engine != "" {
		return engine
	}

	return enginePGXPool
}

// parseSettings parses the global flags and returns the remaining arguments,
// starting with the subcommand name.
func parseSettings(args []string) (settings, []string, error) {
	var s settings

	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.StringVar(&s.engine, "engine", defaultEngine(), "record store: memory, pgx.pool, sql.db or sqlx.db")
	flags.StringVar(&s.dsn, "dsn", config.PostgresDSN(), "primary database DSN")
	flags.StringVar(&s.replicaDSN, "replica-dsn", config.PostgresReplicaDSN(), "optional read replica DSN")
	flags.DurationVar(&s.txTimeout, "tx-timeout", defaultTxTimeout, "upper bound for one database transaction")
	flags.IntVar(&s.cacheSize, "cache-size", readcache.DefaultSize, "number of query results kept in the read cache")
	flags.StringVar(&s.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&s.observability, "observability", false, "export metrics and traces via OTLP")
	flags.StringVar(&s.otlpEndpoint, "otlp-endpoint", config.OTLPEndpoint(), "OTLP gRPC collector endpoint")

	if err := flags.Parse(args); err != nil {
		return settings{}, nil, usageError(err)
	}

	switch s.engine {
	case engineMemory, enginePGXPool, engineSQLDB, engineSQLX:
	default:
		return settings{}, nil, usageError(errUnknownEngine)
	}

	return s, flags.Args(), nil
}
