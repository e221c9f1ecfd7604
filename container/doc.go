// Package container frames binserde blobs as self-describing files.
//
// A container starts with a fixed six byte header:
//
//	offset  size  field
//	0       2     magic 0x3B1C, big-endian
//	2       2     format version, little-endian
//	4       1     compression (0 none, 1 lz4, 2 zstd)
//	5       1     flags (bit 0: BLAKE3 trailer)
//
// The header is followed by the uncompressed and stored body lengths as
// little-endian u32 values, the stored body, and, when the checksum flag is
// set, the 32 byte BLAKE3-256 digest of the uncompressed blob.
//
// The wire mode is not recorded; readers must use the mode the writer used.
//
//	err := container.Write(f, ws, container.DefaultOptions())
//	...
//	err = container.Read(f, &ws, container.DefaultOptions())
//
// Open returns the header and the raw blob without decoding it, which is
// what inspection tools need.
package container
