// Package addbook implements the Add Book use case: a new title enters the catalog with all of its copies available.
package addbook
