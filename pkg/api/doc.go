// Package api defines the public contracts of the ratchet engine: events,
// state results, the three-phase Node interface, the shared Store, the
// Machine and PersistenceAdapter interfaces, and observer Hooks.
//
// Most users import the root ratchet package, which re-exports these types
// and provides constructors for machines and persistence adapters.
package api
