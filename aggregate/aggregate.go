package aggregate

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/vecsight/novelty"
)

// Record is one scored item fed to the aggregator.
type Record struct {
	Market string
	// Category is the feedback or originating-dataset tag.
	Category   string
	Confidence float64
	Novelty    float64
	Timestamp  time.Time
}

// FromReport converts novelty score records. The dataset tag becomes the
// category.
func FromReport(r *novelty.Report) []Record {
	if r == nil {
		return nil
	}
	recs := r.Records()
	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = Record{
			Market:     rec.Market,
			Category:   rec.Dataset,
			Confidence: rec.Confidence,
			Novelty:    rec.Score,
			Timestamp:  rec.Timestamp,
		}
	}
	return out
}

// MarketAggregate summarizes the records of one market.
type MarketAggregate struct {
	Market string `json:"market"`
	// Counts holds every category observed across the whole input, with 0 for
	// categories absent from this market.
	Counts        map[string]int `json:"counts"`
	Total         int            `json:"total"`
	AvgConfidence float64        `json:"avg_confidence"`
	AvgNovelty    float64        `json:"avg_novelty"`
}

// mean accumulates finite values.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m.sum += v
	m.n++
}

func (m mean) value() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.n)
}

// ByMarket groups records by market tag, sorted by market. Records without a
// market are grouped under "".
func ByMarket(records []Record) []MarketAggregate {
	type acc struct {
		counts     map[string]int
		total      int
		confidence mean
		novelty    mean
	}

	categories := make(map[string]struct{})
	groups := make(map[string]*acc)
	for _, r := range records {
		categories[r.Category] = struct{}{}
		g, ok := groups[r.Market]
		if !ok {
			g = &acc{counts: make(map[string]int)}
			groups[r.Market] = g
		}
		g.counts[r.Category]++
		g.total++
		g.confidence.add(r.Confidence)
		g.novelty.add(r.Novelty)
	}

	out := make([]MarketAggregate, 0, len(groups))
	for market, g := range groups {
		counts := make(map[string]int, len(categories))
		for c := range categories {
			counts[c] = g.counts[c]
		}
		out = append(out, MarketAggregate{
			Market:        market,
			Counts:        counts,
			Total:         g.total,
			AvgConfidence: g.confidence.value(),
			AvgNovelty:    g.novelty.value(),
		})
	}
	slices.SortFunc(out, func(a, b MarketAggregate) int { return strings.Compare(a.Market, b.Market) })
	return out
}

// Bucket is a calendar bucket width.
type Bucket uint8

const (
	// BucketWeek starts on Monday 00:00 UTC.
	BucketWeek Bucket = iota
	// BucketDay starts at 00:00 UTC.
	BucketDay
	// BucketMonth starts on the first of the month, 00:00 UTC.
	BucketMonth
)

func (b Bucket) String() string {
	switch b {
	case BucketDay:
		return "day"
	case BucketWeek:
		return "week"
	case BucketMonth:
		return "month"
	default:
		return fmt.Sprintf("Bucket(%d)", uint8(b))
	}
}

// ParseBucket parses "day", "week" or "month".
func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "1d":
		return BucketDay, nil
	case "week", "1w", "1 week":
		return BucketWeek, nil
	case "month", "1m":
		return BucketMonth, nil
	default:
		return 0, fmt.Errorf("aggregate: unknown bucket %q", s)
	}
}

// Start returns the start of the bucket containing t.
func (b Bucket) Start(t time.Time) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch b {
	case BucketDay:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case BucketMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	}
}

// TimeBucketAggregate summarizes the records of one calendar bucket.
type TimeBucketAggregate struct {
	Start         time.Time `json:"bucket_start"`
	Count         int       `json:"count"`
	AvgConfidence float64   `json:"avg_confidence"`
	AvgNovelty    float64   `json:"avg_novelty"`
}

// ByTime groups records by calendar bucket, ascending by bucket start.
// Records without a timestamp are skipped and empty buckets are omitted.
func ByTime(records []Record, bucket Bucket) []TimeBucketAggregate {
	type acc struct {
		count      int
		confidence mean
		novelty    mean
	}

	groups := make(map[time.Time]*acc)
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		start := bucket.Start(r.Timestamp)
		g, ok := groups[start]
		if !ok {
			g = &acc{}
			groups[start] = g
		}
		g.count++
		g.confidence.add(r.Confidence)
		g.novelty.add(r.Novelty)
	}

	out := make([]TimeBucketAggregate, 0, len(groups))
	for start, g := range groups {
		out = append(out, TimeBucketAggregate{
			Start:         start,
			Count:         g.count,
			AvgConfidence: g.confidence.value(),
			AvgNovelty:    g.novelty.value(),
		})
	}
	slices.SortFunc(out, func(a, b TimeBucketAggregate) int { return a.Start.Compare(b.Start) })
	return out
}

// Total returns the sum of category counts across aggregates.
func Total(aggs []MarketAggregate) int {
	var n int
	for _, a := range aggs {
		for _, c := range a.Counts {
			n += c
		}
	}
	return n
}
