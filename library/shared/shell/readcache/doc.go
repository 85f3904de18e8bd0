// Package readcache is an explicit LRU read cache in front of query handlers.
//
// Entries are grouped into keyspaces (books, users, reservations). Every successful command
// invalidates the keyspaces it touches, see InvalidatingCommandWrapper. Each keyspace carries a
// generation counter: a query result is only stored when none of its keyspaces was invalidated
// while the query ran, so a read racing a write never repopulates a stale value.
//
// Values are stored encoded with json-iterator, callers always get their own copy.
// Inventory ledger operations never go through this cache.
package readcache
