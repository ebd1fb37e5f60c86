// Package testutil provides testing utilities for vecload.
//
// This package is intended for use in tests only. It generates
// deterministic random vectors and synthetic datasets whose ground truth is
// computed by exact search.
//
//	rng := testutil.NewRNG(seed)
//	src := testutil.Dataset(rng, 1000, 10, 16, 10)
//	m, err := vecload.Export(ctx, src, store)
package testutil
