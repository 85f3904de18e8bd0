// Package bookdetails implements the Book Details query use case.
package bookdetails
