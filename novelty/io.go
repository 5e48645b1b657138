package novelty

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/vecsight/blobstore"
	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/persistence"
	"github.com/hupe1980/vecsight/scaler"
)

// Write serializes m into a persistence container.
func Write(w io.Writer, m *Model, c persistence.Compression) error {
	if m == nil {
		return ErrModelNotLoaded
	}
	n, dim := m.Len(), m.Dim()

	var p persistence.PayloadWriter
	p.WriteUint32(uint32(m.k)) //nolint:gosec
	p.WriteUint8(uint8(m.metric))
	p.WriteUint8(boolByte(m.scaler != nil))
	for _, v := range m.points {
		p.WriteFloat64s(v)
	}
	p.WriteFloat64s(m.kdist)
	p.WriteFloat64s(m.lrd)
	if m.scaler != nil {
		p.WriteFloat64s(m.scaler.Mean())
		p.WriteFloat64s(m.scaler.Std())
	}

	header := persistence.FileHeader{
		Kind:      persistence.KindNoveltyModel,
		Count:     uint64(n),
		Dimension: uint32(dim), //nolint:gosec
	}
	return persistence.WriteContainer(w, header, p.Bytes(), c)
}

// Read deserializes a model written by Write.
func Read(r io.Reader) (*Model, error) {
	header, payload, err := persistence.ReadContainer(r, persistence.KindNoveltyModel)
	if err != nil {
		return nil, fmt.Errorf("novelty: %w", err)
	}
	n, dim := int(header.Count), int(header.Dimension) //nolint:gosec
	if n < 2 || dim < 1 || header.Count*uint64(header.Dimension) > persistence.MaxPayloadSize/8 {
		return nil, fmt.Errorf("novelty: %w: %d points of dimension %d", persistence.ErrCorrupt, n, dim)
	}

	p := persistence.NewPayloadReader(payload)
	k := int(p.ReadUint32())
	metric := distance.Metric(p.ReadUint8())
	standardized := p.ReadUint8() == 1

	data := p.ReadFloat64s(n * dim)
	kdist := p.ReadFloat64s(n)
	lrd := p.ReadFloat64s(n)
	var mean, std []float64
	if standardized {
		mean = p.ReadFloat64s(dim)
		std = p.ReadFloat64s(dim)
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("novelty: %w", err)
	}
	if p.Remaining() != 0 {
		return nil, fmt.Errorf("novelty: %w: %d trailing bytes", persistence.ErrCorrupt, p.Remaining())
	}
	if k < 1 || k >= n {
		return nil, fmt.Errorf("novelty: %w: k=%d for %d points", persistence.ErrCorrupt, k, n)
	}
	for _, x := range data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("novelty: %w: non-finite reference value", persistence.ErrCorrupt)
		}
	}

	distFn, err := distance.Provider(metric)
	if err != nil {
		return nil, fmt.Errorf("novelty: %w: %v", persistence.ErrCorrupt, err)
	}

	m := &Model{
		k:      k,
		metric: metric,
		distFn: distFn,
		points: make([][]float64, n),
		kdist:  kdist,
		lrd:    lrd,
	}
	for i := range m.points {
		m.points[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	if standardized {
		if m.scaler, err = scaler.FromParams(mean, std); err != nil {
			return nil, fmt.Errorf("novelty: %w", err)
		}
	}
	return m, nil
}

// Save writes m to store under name.
func Save(ctx context.Context, store blobstore.Store, name string, m *Model, c persistence.Compression) error {
	var buf bytes.Buffer
	if err := Write(&buf, m, c); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// Load reads the model stored under name.
func Load(ctx context.Context, store blobstore.Store, name string) (*Model, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("novelty: load %s: %w", name, err)
	}
	return Read(bytes.NewReader(data))
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
