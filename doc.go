// Package wordstore provides a schema-driven storage engine that packs typed
// records into fixed-width 251-bit words.
//
// Records are described by a recursive descriptor (schema.Ty), laid out as a
// width tree (schema.Layout) and stored under namespaced resources guarded by
// an Owner/Writer access model. Schema upgrades are accepted only when they
// keep every stored value readable.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wordstore/           Root package with the Store interface
//	├── word/            The Word scalar, typed scalars and ByteArray wire format
//	├── schema/          Descriptors, layouts, encodings and Ty serialization
//	├── selector/        Hash H, name rules, namespace and resource selectors
//	├── introspect/      Go types and WIT types to descriptors, layouts, sizes
//	├── codec/           Bit packing and value encoding over a layout
//	├── acl/             Owner and Writer role sets
//	├── upgrade/         Schema compatibility checker
//	├── world/           Registration, permissions and entity storage
//	├── store/           memstore, boltstore and sqlitestore backends
//	├── config/          Environment configuration
//	├── manifest/        YAML world manifests
//	├── errors/          Structured error types for debugging
//	└── cmd/worldctl/    Command line tool and interactive inspector
//
// # Quick Start
//
// Register a namespace and a model, then write an entity:
//
//	st := memstore.New()
//	w, err := world.New(ctx, st, admin)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := w.RegisterNamespace(ctx, admin, "game"); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := w.RegisterResource(ctx, admin, "game", world.ModelOf[Position]("")); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = w.SetEntity(ctx, admin, "game-Position", Position{Player: admin, X: 1, Y: 2})
//
// # Words
//
// A word holds at most W = 251 bits. Fixed leaf widths range over 1..W.
// Values are packed least significant first; a value that does not fit in the
// current word is split, its low bits closing the word and its high bits
// opening the next.
//
// # Thread Safety
//
// The store backends are safe for concurrent use. World calls are synchronous
// and rely on the caller to serialize conflicting registrations and grants.
package wordstore
