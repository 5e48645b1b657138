package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

var byteOrder = binary.LittleEndian

// WriteContainer writes header followed by payload, compressed with c.
// Magic, version, checksum and sizes are filled in by WriteContainer.
func WriteContainer(w io.Writer, header FileHeader, payload []byte, c Compression) error {
	stored, used, err := compress(payload, c)
	if err != nil {
		return err
	}

	header.Magic = MagicNumber
	header.Version = Version
	header.Compression = used
	header.Checksum = Checksum(payload)
	header.RawSize = uint64(len(payload))
	header.StoredSize = uint64(len(stored))

	if err := binary.Write(w, byteOrder, &header); err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}

// ReadContainer reads and verifies a container of the given kind and returns
// its header and raw payload.
func ReadContainer(r io.Reader, kind Kind) (*FileHeader, []byte, error) {
	var header FileHeader
	if err := binary.Read(r, byteOrder, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	if header.Magic != MagicNumber {
		return nil, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	if header.Kind != kind {
		return nil, nil, fmt.Errorf("%w: got %s, want %s", ErrInvalidKind, header.Kind, kind)
	}
	if header.StoredSize > MaxPayloadSize || header.RawSize > MaxPayloadSize {
		return nil, nil, fmt.Errorf("%w: payload too large", ErrCorrupt)
	}

	stored := make([]byte, header.StoredSize)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, nil, fmt.Errorf("%w: read payload: %v", ErrCorrupt, err)
	}

	payload, err := decompress(stored, header.Compression, header.RawSize)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifyChecksum(payload, header.Checksum); err != nil {
		return nil, nil, err
	}
	return &header, payload, nil
}

// PayloadWriter accumulates little-endian encoded values.
type PayloadWriter struct {
	buf []byte
}

// Bytes returns the encoded payload.
func (p *PayloadWriter) Bytes() []byte { return p.buf }

// WriteUint8 appends v.
func (p *PayloadWriter) WriteUint8(v uint8) { p.buf = append(p.buf, v) }

// WriteUint32 appends v.
func (p *PayloadWriter) WriteUint32(v uint32) { p.buf = byteOrder.AppendUint32(p.buf, v) }

// WriteUint64 appends v.
func (p *PayloadWriter) WriteUint64(v uint64) { p.buf = byteOrder.AppendUint64(p.buf, v) }

// WriteFloat64 appends v.
func (p *PayloadWriter) WriteFloat64(v float64) { p.WriteUint64(math.Float64bits(v)) }

// WriteFloat64s appends every value of vs without a length prefix.
func (p *PayloadWriter) WriteFloat64s(vs []float64) {
	for _, v := range vs {
		p.WriteFloat64(v)
	}
}

// WriteString appends a length-prefixed string.
func (p *PayloadWriter) WriteString(s string) {
	p.WriteUint32(uint32(len(s))) //nolint:gosec
	p.buf = append(p.buf, s...)
}

// PayloadReader decodes values written by PayloadWriter. The first decoding
// error is sticky and reported by Err.
type PayloadReader struct {
	data []byte
	off  int
	err  error
}

// NewPayloadReader returns a reader over data.
func NewPayloadReader(data []byte) *PayloadReader {
	return &PayloadReader{data: data}
}

func (p *PayloadReader) next(n int) []byte {
	if p.err != nil {
		return nil
	}
	if n < 0 || len(p.data)-p.off < n {
		p.err = fmt.Errorf("%w: truncated payload at offset %d", ErrCorrupt, p.off)
		return nil
	}
	b := p.data[p.off : p.off+n]
	p.off += n
	return b
}

// ReadUint8 decodes a uint8.
func (p *PayloadReader) ReadUint8() uint8 {
	if b := p.next(1); b != nil {
		return b[0]
	}
	return 0
}

// ReadUint32 decodes a uint32.
func (p *PayloadReader) ReadUint32() uint32 {
	if b := p.next(4); b != nil {
		return byteOrder.Uint32(b)
	}
	return 0
}

// ReadUint64 decodes a uint64.
func (p *PayloadReader) ReadUint64() uint64 {
	if b := p.next(8); b != nil {
		return byteOrder.Uint64(b)
	}
	return 0
}

// ReadFloat64 decodes a float64.
func (p *PayloadReader) ReadFloat64() float64 {
	return math.Float64frombits(p.ReadUint64())
}

// ReadFloat64s decodes n float64 values.
func (p *PayloadReader) ReadFloat64s(n int) []float64 {
	if p.err == nil && (n < 0 || n > p.Remaining()/8) {
		p.err = fmt.Errorf("%w: truncated payload at offset %d", ErrCorrupt, p.off)
	}
	b := p.next(n * 8)
	if b == nil {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(byteOrder.Uint64(b[i*8:]))
	}
	return out
}

// ReadString decodes a length-prefixed string.
func (p *PayloadReader) ReadString() string {
	n := p.ReadUint32()
	return string(p.next(int(n)))
}

// Remaining returns the number of undecoded bytes.
func (p *PayloadReader) Remaining() int { return len(p.data) - p.off }

// Err returns the first decoding error.
func (p *PayloadReader) Err() error { return p.err }

// SaveToFile writes a file atomically through a temp file and rename.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	// Write to a temp file in the same directory to ensure rename is atomic.
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil { //nolint:gosec
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

// LoadFromFile opens filename and hands a buffered reader to readFunc.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename) //nolint:gosec
	if err != nil {
		return err
	}
	defer f.Close()

	return readFunc(bufio.NewReaderSize(f, 256*1024))
}
