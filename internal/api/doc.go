// Package api defines the canonical error taxonomy shared by every component
// of the gateway.
//
// All errors that cross a component boundary are one of the typed errors in
// this package, checked with the Is* predicates (which unwrap with errors.As)
// and mapped to a client-visible Code by CodeOf. The tool gateway is the
// single translation point from these errors to the wire shape; platform
// adapters construct them and never let raw upstream response bodies past
// their boundary.
package api
