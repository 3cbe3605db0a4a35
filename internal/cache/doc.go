// Package cache persists API responses and collection progress across runs.
//
// The Store is a durable expiring key/value table backed by SQLite: point
// lookups by key, lazy expiry on read, and bulk cleanup. The Ledger is a
// separate JSON progress document recording which species have been fully
// collected so an interrupted batch can resume without redoing work.
package cache
