// Package allreservations implements the All Reservations query use case.
//
// It lists every reservation of every user, one page at a time in id order, each materialized with
// its user and books.
package allreservations
