package dataset

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaTable(rows ...[]string) Table {
	t := Table{{"id", "FAQ_id", "question", "market", "timestamp", "confidence"}}
	return append(t, rows...)
}

func TestAlign(t *testing.T) {
	vecs := Table{
		{"a", "1", "2"},
		{"b", "3", "4"},
	}
	meta := metaTable(
		[]string{"u1", "7", "how do I pay", "US", "2024-03-04", "0.9"},
		[]string{"", "8", "opening hours", "", "", ""},
	)

	ds, err := Align(vecs, meta)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 2, ds.Dim())
	assert.Equal(t, []float64{1, 2}, ds.Vector(0))
	assert.Equal(t, []float64{3, 4}, ds.Vector(1))

	r0 := ds.Record(0)
	assert.Equal(t, "u1", r0.ID)
	assert.Equal(t, "7", r0.Category)
	assert.Equal(t, "how do I pay", r0.Text)
	assert.Equal(t, "US", r0.Market)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), r0.Timestamp)
	assert.InDelta(t, 0.9, r0.Confidence, 1e-12)
	assert.True(t, r0.HasConfidence())

	r1 := ds.Record(1)
	assert.Equal(t, "b", r1.ID, "falls back to the vector id column")
	assert.True(t, r1.Timestamp.IsZero())
	assert.True(t, math.IsNaN(r1.Confidence))
	assert.False(t, r1.HasConfidence())

	assert.Equal(t, []string{"7", "8"}, ds.Categories())
}

func TestAlign_RowCountMismatch(t *testing.T) {
	for n := 0; n < 4; n++ {
		for m := 0; m < 4; m++ {
			if n == m {
				continue
			}
			t.Run(fmt.Sprintf("%d_vs_%d", n, m), func(t *testing.T) {
				var vecs Table
				for i := 0; i < n; i++ {
					vecs = append(vecs, []string{"id", "1", "2"})
				}
				meta := metaTable()
				for i := 0; i < m; i++ {
					meta = append(meta, []string{"", "c", "", "", "", ""})
				}

				_, err := Align(vecs, meta)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAlignment)

				var ae *AlignmentError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, n, ae.VectorRows)
				assert.Equal(t, m, ae.MetadataRows)
			})
		}
	}
}

func TestAlign_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		vecs  Table
		meta  Table
		field string
	}{
		{
			name:  "MissingCategory",
			vecs:  Table{{"a", "1"}},
			meta:  Table{{"question"}, {"hi"}},
			field: DefaultCategoryField,
		},
		{
			name:  "EmptyCategory",
			vecs:  Table{{"a", "1"}},
			meta:  metaTable([]string{"", "", "", "", "", ""}),
			field: DefaultCategoryField,
		},
		{
			name: "NonNumericVector",
			vecs: Table{{"a", "x"}},
			meta: metaTable([]string{"", "c", "", "", "", ""}),
		},
		{
			name: "NaNVector",
			vecs: Table{{"a", "NaN"}},
			meta: metaTable([]string{"", "c", "", "", "", ""}),
		},
		{
			name: "RaggedVector",
			vecs: Table{{"a", "1", "2"}, {"b", "1"}},
			meta: metaTable([]string{"", "c", "", "", "", ""}, []string{"", "c", "", "", "", ""}),
		},
		{
			name: "IDOnly",
			vecs: Table{{"a"}},
			meta: metaTable([]string{"", "c", "", "", "", ""}),
		},
		{
			name:  "BadTimestamp",
			vecs:  Table{{"a", "1"}},
			meta:  metaTable([]string{"", "c", "", "", "yesterday", ""}),
			field: DefaultTimestampField,
		},
		{
			name:  "BadConfidence",
			vecs:  Table{{"a", "1"}},
			meta:  metaTable([]string{"", "c", "", "", "", "high"}),
			field: DefaultConfidenceField,
		},
		{
			name: "EmptyTables",
			vecs: Table{},
			meta: Table{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(tt.vecs, tt.meta)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchema)
			assert.NotErrorIs(t, err, ErrAlignment)

			var se *SchemaError
			require.True(t, errors.As(err, &se))
			if tt.field != "" {
				assert.Equal(t, tt.field, se.Field)
			}
			assert.NotEmpty(t, se.Error())
		})
	}
}

func TestAlign_CustomFields(t *testing.T) {
	vecs := Table{{"a", "0.5"}}
	meta := Table{{"intent", "utterance", "country"}, {"greeting", "hello", "FR"}}

	ds, err := Align(vecs, meta,
		WithCategoryField("intent"),
		WithTextField("utterance"),
		WithMarketField("country"),
	)
	require.NoError(t, err)
	r := ds.Record(0)
	assert.Equal(t, "greeting", r.Category)
	assert.Equal(t, "hello", r.Text)
	assert.Equal(t, "FR", r.Market)
	assert.Equal(t, "hello", r.Fields["utterance"])
}

func TestNew(t *testing.T) {
	recs := []MetadataRecord{{Category: "a"}, {Category: "b"}}
	src := [][]float64{{1, 2}, {3, 4}}

	ds, err := New(src, recs)
	require.NoError(t, err)
	src[0][0] = 100
	assert.Equal(t, 1.0, ds.Vector(0)[0], "New copies its input")

	_, err = New([][]float64{{1}}, recs)
	assert.ErrorIs(t, err, ErrAlignment)

	_, err = New([][]float64{{1, 2}, {3}}, recs)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = New([][]float64{{1}, {math.Inf(1)}}, recs)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = New([][]float64{{1}, {2}}, []MetadataRecord{{Category: "a"}, {}})
	assert.ErrorIs(t, err, ErrSchema)

	_, err = New(nil, nil)
	assert.ErrorIs(t, err, ErrSchema)
}
