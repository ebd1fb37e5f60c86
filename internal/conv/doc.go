// Package conv narrows integers with bounds checks.
//
// Ground-truth files store neighbor ids as int32, while HDF5 sources commonly
// hold them as uint32, int64 or uint64. Every narrowing goes through this
// package so an id that does not fit fails with [ErrOverflow] instead of
// wrapping.
package conv
