// Package persistence implements the self-describing binary container used to
// store fitted models.
//
// A container is a fixed-size little-endian FileHeader followed by a single
// payload. The header records the payload kind, the compression applied
// (none, LZ4 or ZSTD), the stored and raw sizes and a CRC32-C of the raw payload,
// so a reader can reject foreign, truncated or corrupted files before decoding.
//
//	var p persistence.PayloadWriter
//	p.WriteFloat64s(values)
//	err := persistence.WriteContainer(w, persistence.FileHeader{Kind: persistence.KindNoveltyModel}, p.Bytes(), persistence.CompressionZSTD)
package persistence
