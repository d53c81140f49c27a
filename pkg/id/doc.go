// Package id generates 128-bit identifiers that sort by creation time.
//
// An ID is 16 bytes big-endian: an 8 byte millisecond timestamp followed by
// an 8 byte per-millisecond counter. Byte order is therefore creation order
// within one process, which makes IDs convenient as request identifiers in
// logs: grepping a range of IDs yields a time range.
//
//	g := id.NewGenerator()
//	rid := g.Next().String() // 32 hex chars
//
// The package-level NewString uses a shared generator.
package id
