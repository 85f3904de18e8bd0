// Package fixtures provides builders for books, users, and reservations,
// plus Given... helpers that seed any reservations.Store with consistent data.
package fixtures
