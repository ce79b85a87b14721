// Package testutil provides testing utilities for escomatch.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random vector generator and deterministic in-process
// embedding providers, so matching behavior can be asserted without a real
// model backend.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := rng.UnitVector(128)
//
// # Deterministic Providers
//
//	p := testutil.NewKeywordProvider("test-model", map[string][]string{
//		"containers": {"docker", "kubernetes", "containers"},
//	})
package testutil
