// Package userdetails implements the User Details query use case.
package userdetails
