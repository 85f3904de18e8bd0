// Package config provides PostgreSQL connection and OpenTelemetry provider setup
// for the library application.
//
// Connections can be built for all three drivers supported by the postgres engine
// (pgxpool.Pool, sql.DB with lib/pq, sqlx.DB). DSNs are read from the environment with
// defaults pointing at the local docker-compose database.
//
// This package is part of the shell (infrastructure) layer.
package config
