// Package platform defines the canonical fantasy-league schema, the Adapter
// interface upstream platforms are normalized through, and the shared
// normalization helpers (ranking, matchup pairing, point combination) the
// adapters build on. Concrete adapters live in subpackages.
package platform
