// Package shell holds the infrastructure contracts shared by all feature slices of the library application.
//
// It defines the Command and Query contracts, the generic handler interfaces, the HandlerResult
// returned by command handlers, retry with exponential backoff for transient store failures,
// and the metric, log, and span vocabulary used by the observable and readcache wrappers.
//
// Feature handlers contain only the workflow of their use case. Observability and caching are
// applied from the outside at wiring time, see the observable and readcache packages.
package shell
