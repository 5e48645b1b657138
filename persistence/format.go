package persistence

import "errors"

const (
	// MagicNumber identifies vecsight model files (ASCII: "VSM1").
	MagicNumber = 0x56534D31
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	// MaxPayloadSize bounds the stored payload a reader accepts.
	MaxPayloadSize = 1 << 34
)

// Kind identifies the payload of a container.
type Kind uint8

const (
	// KindNoveltyModel is a serialized reference novelty model.
	KindNoveltyModel Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindNoveltyModel:
		return "novelty-model"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidKind    = errors.New("invalid payload kind")
	ErrCorrupt        = errors.New("corrupt container")
)

// FileHeader is the 60-byte header at the start of every container.
type FileHeader struct {
	Magic       uint32 // 0x56534D31 ("VSM1")
	Version     uint32 // File format version
	Kind        Kind
	Compression Compression
	Padding1    [2]byte
	Count       uint64 // Number of records in the payload (kind specific)
	Dimension   uint32 // Vector dimensionality (kind specific)
	Checksum    uint32 // CRC32-C of the raw payload
	RawSize     uint64 // Payload size before compression
	StoredSize  uint64 // Payload size as stored
	Reserved    [16]byte
}
