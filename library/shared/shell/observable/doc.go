// Package observable provides wrappers that instrument command and query handlers
// with metrics, tracing, and logging while the handlers keep only their workflow.
//
// # Core Principle: External Wrapping
//
// The wrappers are applied at wiring time, not hidden inside handler constructors:
//
//	// 1. Create the plain handler
//	coreHandler, err := reservebooks.NewCommandHandler(store, machine)
//
//	// 2. Wrap it with observability
//	handler, err := observable.NewCommandWrapper[reservebooks.Command, reservations.ReservationResult](
//		coreHandler,
//		observable.WithMetrics(metricsCollector),
//		observable.WithTracing(tracingCollector),
//		observable.WithContextualLogging(contextualLogger),
//	)
//
//	// 3. Use the wrapped handler
//	result, handlerResult, err := handler.Handle(ctx, command)
//
// Each concern is optional. Unit tests of the workflow use the plain handlers.
//
// # Outcome classification
//
// Commands are recorded as success, idempotent, rejected (business rule or validation),
// canceled, timeout, transient_failure (retries exhausted), or error.
// Rejections are logged at warn level because they are caused by the request, not by the system.
package observable
