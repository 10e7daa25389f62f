// Package store defines the key-value persistence boundary for all gateway
// state (encrypted credentials, leagues, signing keys, authorization codes,
// connections, subscription status).
//
// Higher layers depend only on the Store interface; tests and single-process
// deployments inject MemoryStore. The interface deliberately includes an
// atomic Update primitive because authorization-code consumption requires
// exclusive check-and-mark semantics under concurrent token exchanges.
package store
