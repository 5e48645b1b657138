package persistence

import (
	"errors"
	"fmt"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the CRC32-C of an uncompressed model payload. It detects
// accidental corruption only.
func Checksum(payload []byte) uint32 {
	return crc32.Checksum(payload, castagnoli)
}

// VerifyChecksum compares the payload checksum against the one stored in the
// container header.
func VerifyChecksum(payload []byte, want uint32) error {
	if got := Checksum(payload); got != want {
		return &ChecksumMismatchError{Expected: want, Actual: got, Size: len(payload)}
	}
	return nil
}

// ChecksumMismatchError reports a model payload whose checksum does not match
// its header. It unwraps to ErrCorrupt.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
	Size     int
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch over %d payload bytes: header 0x%08x, computed 0x%08x",
		e.Size, e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupt }

// IsChecksumMismatch reports whether err wraps a ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var ce *ChecksumMismatchError
	return errors.As(err, &ce)
}
