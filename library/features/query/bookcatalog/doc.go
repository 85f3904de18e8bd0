// Package bookcatalog implements the Book Catalog query use case.
//
// The catalog is listed page by page in id order. When an ISBN is given the query turns into a lookup
// and returns a page with exactly that book.
package bookcatalog
