// Package pgcopy encodes and decodes PostgreSQL's binary COPY format
// (COPY ... FROM STDIN WITH (FORMAT BINARY)).
//
// # Stream layout
//
//	header:  "PGCOPY\n\xff\r\n\x00" | flags int32 | extension length int32
//	tuple:   field count int16 | { field length int32 | field bytes }...
//
// All integers are big-endian. A field length of -1 denotes NULL. The encoder
// writes no trailer: end of data is signalled by closing the copy channel.
//
// # Field encodings
//
//   - int4: 4 bytes, two's complement.
//   - vector (pgvector, VectorChord): dim int16 | unused int16 | dim × float4.
//   - int4[]: ndim | has_null | element oid (23) | length | lower bound (1),
//     then per element a length of 4 and the value.
//
// Every field is written by reserving its length prefix, appending the
// content, and backpatching the prefix with the number of bytes appended.
package pgcopy
