package shell

import "context"

// Command represents the contract for all command types.
// CommandType identifies the command in metrics, spans, and logs.
type Command interface {
	CommandType() string
}

// Query represents the contract for all query types.
// QueryType identifies the query in metrics, spans, and logs.
type Query interface {
	QueryType() string
}

// CommandHandler processes one command type and returns its result R.
// HandlerResult carries business outcome and retry metadata for the observable wrapper.
// It is returned together with errors so retry metadata is never lost.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (R, HandlerResult, error)
}

// QueryHandler processes one query type and returns its result R.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
