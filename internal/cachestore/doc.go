// Package cachestore persists translation and validation results in a
// SQLite database so repeated runs over the same media skip engine calls.
//
// Entries are content-addressed memos, not history: translations are keyed
// by a digest of the language pair and input batch, validations by the
// original text and language pair. The store is safe for concurrent use and
// for several processes sharing one database file (WAL mode, busy retries).
package cachestore
