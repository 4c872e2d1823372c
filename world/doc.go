// Package world keeps the registry of namespaces and models on top of a
// word store, enforces Owner and Writer permissions through package acl, and
// reads and writes entity data with the codec.
//
// Every registration is persisted as a record under a selector-derived key,
// so a World reopened over the same store sees the same resources. Resource
// identity is always derived from the namespace and name; a definition that
// reports any other selector is rejected with a selector mismatch.
//
// Entities are addressed by their key members. A model with a single key
// uses that key's leaf as the entity id; otherwise the id hashes every key
// leaf. Each value member is stored under its own key so that upgrades which
// append members leave existing data readable.
package world
