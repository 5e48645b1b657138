package novelty

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
)

// Item is one pre-embedded utterance to score.
type Item struct {
	// ID identifies the source item. When empty, "<dataset>-<n>" is
	// assigned, n being the record's position within its dataset.
	ID     string
	Vector []float64
	// Market is the optional market tag.
	Market string
	// Confidence is the optional top-intent confidence (NaN when missing).
	Confidence float64
	// Timestamp is optional (zero when missing).
	Timestamp time.Time
}

// Batch is a set of items from one originating dataset.
type Batch struct {
	// Dataset tags every record scored from this batch. Required.
	Dataset string
	Items   []Item
}

// ScoreRecord is the novelty result of one item.
type ScoreRecord struct {
	ID      string
	Dataset string
	Score   float64
	// Classified is false when the report was built without a classifier.
	Classified bool
	Class      Class
	Market     string
	Confidence float64
	Timestamp  time.Time
}

// Summary describes the scores of one dataset.
type Summary struct {
	Dataset string
	Count   int
	Novel   int
	Mean    float64
	Min     float64
	Max     float64
}

// Report holds tagged score records in batch order. It is immutable.
type Report struct {
	datasets []string
	records  []ScoreRecord
	index    map[string][]int
}

// ScoreBatches scores every batch and tags each record with its batch's
// dataset. cls may be nil, in which case records are not classified. Batches
// sharing a tag are merged under that tag.
func (m *Model) ScoreBatches(ctx context.Context, cls *Classifier, batches ...Batch) (*Report, error) {
	if m == nil {
		return nil, ErrModelNotLoaded
	}
	for i, b := range batches {
		if b.Dataset == "" {
			return nil, fmt.Errorf("novelty: batch %d: %w", i, ErrMissingDatasetTag)
		}
	}

	r := &Report{index: make(map[string][]int)}
	for _, b := range batches {
		vectors := make([][]float64, len(b.Items))
		for i, it := range b.Items {
			vectors[i] = it.Vector
		}
		scores, err := m.Score(ctx, vectors)
		if err != nil {
			return nil, fmt.Errorf("novelty: dataset %q: %w", b.Dataset, err)
		}

		if _, seen := r.index[b.Dataset]; !seen {
			r.datasets = append(r.datasets, b.Dataset)
			r.index[b.Dataset] = nil
		}
		for i, it := range b.Items {
			rec := ScoreRecord{
				ID:         it.ID,
				Dataset:    b.Dataset,
				Score:      scores[i],
				Market:     it.Market,
				Confidence: it.Confidence,
				Timestamp:  it.Timestamp,
			}
			if rec.ID == "" {
				// Stable across reruns: position within the dataset.
				rec.ID = b.Dataset + "-" + strconv.Itoa(len(r.index[b.Dataset]))
			}
			if cls != nil {
				rec.Classified = true
				rec.Class = cls.Classify(rec.Score)
			}
			r.index[b.Dataset] = append(r.index[b.Dataset], len(r.records))
			r.records = append(r.records, rec)
		}
	}
	return r, nil
}

// Datasets returns the dataset tags in first-seen order.
func (r *Report) Datasets() []string { return slices.Clone(r.datasets) }

// Records returns a copy of all records.
func (r *Report) Records() []ScoreRecord { return slices.Clone(r.records) }

// Len returns the number of records.
func (r *Report) Len() int { return len(r.records) }

// ByDataset returns the records tagged with dataset.
func (r *Report) ByDataset(dataset string) []ScoreRecord {
	idx := r.index[dataset]
	out := make([]ScoreRecord, len(idx))
	for i, j := range idx {
		out[i] = r.records[j]
	}
	return out
}

// Summaries returns one Summary per dataset in first-seen order.
func (r *Report) Summaries() []Summary {
	out := make([]Summary, 0, len(r.datasets))
	for _, ds := range r.datasets {
		s := Summary{Dataset: ds, Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
		var sum float64
		for _, j := range r.index[ds] {
			rec := r.records[j]
			if s.Count == 0 {
				s.Min, s.Max = rec.Score, rec.Score
			}
			s.Count++
			sum += rec.Score
			s.Min = math.Min(s.Min, rec.Score)
			s.Max = math.Max(s.Max, rec.Score)
			if rec.Classified && rec.Class == Novel {
				s.Novel++
			}
		}
		if s.Count > 0 {
			s.Mean = sum / float64(s.Count)
		}
		out = append(out, s)
	}
	return out
}
