// Package store groups the wordstore.Store backends.
//
//	memstore     in-process map, for tests and ephemeral worlds
//	boltstore    single-file bbolt database
//	sqlitestore  SQLite database with embedded migrations
//
// Every backend stores a key as its 32-byte word and the value as the
// concatenated 32-byte encodings of its words. Setting an empty word slice
// deletes the key. All backends pass the storetest conformance suite.
package store
