// Package acceptance runs the library's behavior scenarios, written as cucumber feature files,
// against the in-memory record store.
package acceptance
