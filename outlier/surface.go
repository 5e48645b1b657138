package outlier

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Row is one entry of a surfaced category.
type Row struct {
	// Index is the point's row in the scored input.
	Index    int
	Category string
	Label    Label
	Factor   float64
}

// Surface applies the category-surfacing policy to set.
//
// categories holds the category of every scored point. A category is kept only
// if at least one of its members is flagged; every member of a kept category
// is emitted in row order. Flagged members carry LabelOutlier, the others
// LabelNormal.
func Surface(set *ScoreSet, categories []string) ([]Row, error) {
	if len(categories) != set.Len() {
		return nil, fmt.Errorf("%w: %d categories for %d scored points", ErrOutlier, len(categories), set.Len())
	}

	members := make(map[string]*roaring.Bitmap)
	for i, c := range categories {
		bm, ok := members[c]
		if !ok {
			bm = roaring.New()
			members[c] = bm
		}
		bm.Add(uint32(i)) //nolint:gosec
	}

	var kept []*roaring.Bitmap
	for _, bm := range members {
		if bm.Intersects(set.flagged) {
			kept = append(kept, bm)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	rows := roaring.FastOr(kept...)
	out := make([]Row, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		out = append(out, Row{
			Index:    i,
			Category: categories[i],
			Label:    set.Labels[i],
			Factor:   set.Factors[i],
		})
	}
	return out, nil
}
