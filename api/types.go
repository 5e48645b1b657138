package api

import (
	"math"
	"strconv"
	"time"

	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/novelty"
	"github.com/hupe1980/vecsight/outlier"
	"github.com/hupe1980/vecsight/snapshot"
)

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func optional(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// timestamp maps the zero time (missing) to nil so it is omitted.
func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func valueOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status          string `json:"status"`
	SnapshotVersion uint64 `json:"snapshot_version"`
	ReferenceLoaded bool   `json:"reference_loaded"`
}

// RebuildRequest carries the two decoded tables of a dataset.
type RebuildRequest struct {
	Vectors  dataset.Table `json:"vectors"`
	Metadata dataset.Table `json:"metadata"`
}

// Point is one projected row of a snapshot.
type Point struct {
	Index       int       `json:"index"`
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Market      string    `json:"market,omitempty"`
	Text        string    `json:"text,omitempty"`
	Coordinates []float64 `json:"coordinates"`
	Outlier     bool      `json:"outlier"`
}

// SnapshotResponse summarizes a published snapshot.
type SnapshotResponse struct {
	Version    uint64    `json:"version"`
	BuildID    string    `json:"build_id"`
	BuiltAt    time.Time `json:"built_at"`
	DurationMS int64     `json:"duration_ms"`
	Rows       int       `json:"rows"`
	Dimension  int       `json:"dimension"`
	Supervised bool      `json:"supervised"`
	Flagged    int       `json:"flagged"`
	Categories []string  `json:"categories"`
	Points     []Point   `json:"points,omitempty"`
}

// NewSnapshotResponse builds the response body for a snapshot.
func NewSnapshotResponse(s *snapshot.Snapshot, withPoints bool) SnapshotResponse {
	resp := SnapshotResponse{
		Version:    s.Version,
		BuildID:    s.BuildID.String(),
		BuiltAt:    s.BuiltAt,
		DurationMS: s.Duration.Milliseconds(),
		Rows:       s.Len(),
		Dimension:  s.Dataset.Dim(),
		Supervised: s.Projection.Supervised(),
		Flagged:    s.Outliers.FlaggedCount(),
		Categories: s.Categories(),
	}
	if !withPoints {
		return resp
	}
	resp.Points = make([]Point, s.Len())
	for i := range resp.Points {
		rec := s.Dataset.Record(i)
		resp.Points[i] = Point{
			Index:       i,
			ID:          rec.ID,
			Category:    rec.Category,
			Market:      rec.Market,
			Text:        rec.Text,
			Coordinates: s.Coordinates[i],
			Outlier:     s.Outliers.IsFlagged(i),
		}
	}
	return resp
}

// OutlierRow is one surfaced row of a snapshot.
type OutlierRow struct {
	Index       int           `json:"index"`
	ID          string        `json:"id,omitempty"`
	Category    string        `json:"category"`
	Coordinates []float64     `json:"coordinates"`
	Label       outlier.Label `json:"label"`
	Factor      Float         `json:"factor"`
	Text        string        `json:"text,omitempty"`
}

// OutliersResponse is returned by GET /snapshot/outliers.
type OutliersResponse struct {
	Version uint64       `json:"version"`
	Rows    []OutlierRow `json:"rows"`
}

// NewOutliersResponse builds the response body for a snapshot's outlier rows.
func NewOutliersResponse(s *snapshot.Snapshot, flaggedOnly bool) OutliersResponse {
	rows := s.OutlierRows
	if flaggedOnly {
		rows = s.FlaggedRows()
	}
	resp := OutliersResponse{Version: s.Version, Rows: make([]OutlierRow, len(rows))}
	for i, r := range rows {
		resp.Rows[i] = OutlierRow{
			Index:       r.Index,
			ID:          r.ID,
			Category:    r.Category,
			Coordinates: r.Coordinates,
			Label:       r.Label,
			Factor:      Float(r.Factor),
			Text:        r.Text,
		}
	}
	return resp
}

// RetrainRequest carries a reference corpus.
type RetrainRequest struct {
	Vectors [][]float64 `json:"vectors"`
	// Save persists the fitted model under the handler's reference name.
	Save bool `json:"save,omitempty"`
}

// ReferencesResponse lists saved reference models.
type ReferencesResponse struct {
	References []string `json:"references"`
}

// RetrainResponse describes the fitted reference model.
type RetrainResponse struct {
	Points       int    `json:"points"`
	Dimension    int    `json:"dimension"`
	K            int    `json:"k"`
	Metric       string `json:"metric"`
	Standardized bool   `json:"standardized"`
	Saved        bool   `json:"saved"`
}

// ItemRequest is one utterance to score.
type ItemRequest struct {
	ID         string     `json:"id,omitempty"`
	Vector     []float64  `json:"vector"`
	Market     string     `json:"market,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// BatchRequest is a dataset-tagged group of items.
type BatchRequest struct {
	Dataset string        `json:"dataset"`
	Items   []ItemRequest `json:"items"`
}

func (b BatchRequest) batch() novelty.Batch {
	items := make([]novelty.Item, len(b.Items))
	for i, it := range b.Items {
		items[i] = novelty.Item{
			ID:         it.ID,
			Vector:     it.Vector,
			Market:     it.Market,
			Confidence: optional(it.Confidence),
			Timestamp:  valueOf(it.Timestamp),
		}
	}
	return novelty.Batch{Dataset: b.Dataset, Items: items}
}

func batches(reqs []BatchRequest) []novelty.Batch {
	out := make([]novelty.Batch, len(reqs))
	for i, b := range reqs {
		out[i] = b.batch()
	}
	return out
}

// ScoreRequest is the body of POST /novelty/score.
type ScoreRequest struct {
	Batches []BatchRequest `json:"batches"`
}

// ScoreRecord is one scored item.
type ScoreRecord struct {
	ID         string     `json:"id"`
	Dataset    string     `json:"dataset"`
	Score      Float      `json:"score"`
	Class      string     `json:"class,omitempty"`
	Market     string     `json:"market,omitempty"`
	Confidence Float      `json:"confidence"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// Summary describes the scores of one dataset.
type Summary struct {
	Dataset string `json:"dataset"`
	Count   int    `json:"count"`
	Novel   int    `json:"novel"`
	Mean    Float  `json:"mean"`
	Min     Float  `json:"min"`
	Max     Float  `json:"max"`
}

// ScoreResponse is returned by POST /novelty/score.
type ScoreResponse struct {
	Threshold Float         `json:"threshold"`
	Records   []ScoreRecord `json:"records"`
	Summaries []Summary     `json:"summaries"`
}

// NewScoreResponse builds the response body for a score report.
func NewScoreResponse(r *novelty.Report, cls *novelty.Classifier) ScoreResponse {
	resp := ScoreResponse{Threshold: Float(math.NaN())}
	if cls != nil {
		resp.Threshold = Float(cls.Threshold())
	}
	for _, rec := range r.Records() {
		out := ScoreRecord{
			ID:         rec.ID,
			Dataset:    rec.Dataset,
			Score:      Float(rec.Score),
			Market:     rec.Market,
			Confidence: Float(rec.Confidence),
			Timestamp:  timestamp(rec.Timestamp),
		}
		if rec.Classified {
			out.Class = rec.Class.String()
		}
		resp.Records = append(resp.Records, out)
	}
	for _, s := range r.Summaries() {
		resp.Summaries = append(resp.Summaries, Summary{
			Dataset: s.Dataset,
			Count:   s.Count,
			Novel:   s.Novel,
			Mean:    Float(s.Mean),
			Min:     Float(s.Min),
			Max:     Float(s.Max),
		})
	}
	return resp
}

// RecordRequest is one pre-scored record to aggregate.
type RecordRequest struct {
	Market     string     `json:"market"`
	Category   string     `json:"category"`
	Confidence *float64   `json:"confidence,omitempty"`
	Novelty    *float64   `json:"novelty,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// AggregateRequest selects the records to aggregate. Explicit records win
// over batches; with neither, the current snapshot's rows are used.
type AggregateRequest struct {
	Records []RecordRequest `json:"records,omitempty"`
	Batches []BatchRequest  `json:"batches,omitempty"`
	// Bucket is day, week or month. Only used by POST /aggregates/time.
	Bucket string `json:"bucket,omitempty"`
}

func (r AggregateRequest) records() []aggregate.Record {
	out := make([]aggregate.Record, len(r.Records))
	for i, rec := range r.Records {
		out[i] = aggregate.Record{
			Market:     rec.Market,
			Category:   rec.Category,
			Confidence: optional(rec.Confidence),
			Novelty:    optional(rec.Novelty),
			Timestamp:  valueOf(rec.Timestamp),
		}
	}
	return out
}

// MarketAggregate is the roll-up of one market.
type MarketAggregate struct {
	Market        string         `json:"market"`
	Counts        map[string]int `json:"counts"`
	Total         int            `json:"total"`
	AvgConfidence Float          `json:"avg_confidence"`
	AvgNovelty    Float          `json:"avg_novelty"`
}

// MarketsResponse is returned by POST /aggregates/markets.
type MarketsResponse struct {
	Total   int               `json:"total"`
	Markets []MarketAggregate `json:"markets"`
}

// NewMarketsResponse builds the response body for a market roll-up.
func NewMarketsResponse(aggs []aggregate.MarketAggregate) MarketsResponse {
	resp := MarketsResponse{Total: aggregate.Total(aggs), Markets: make([]MarketAggregate, len(aggs))}
	for i, a := range aggs {
		resp.Markets[i] = MarketAggregate{
			Market:        a.Market,
			Counts:        a.Counts,
			Total:         a.Total,
			AvgConfidence: Float(a.AvgConfidence),
			AvgNovelty:    Float(a.AvgNovelty),
		}
	}
	return resp
}

// TimeBucket is the roll-up of one calendar bucket.
type TimeBucket struct {
	Start         time.Time `json:"start"`
	Count         int       `json:"count"`
	AvgConfidence Float     `json:"avg_confidence"`
	AvgNovelty    Float     `json:"avg_novelty"`
}

// TimeResponse is returned by POST /aggregates/time.
type TimeResponse struct {
	Bucket  string       `json:"bucket"`
	Buckets []TimeBucket `json:"buckets"`
}

// NewTimeResponse builds the response body for a time roll-up.
func NewTimeResponse(b aggregate.Bucket, aggs []aggregate.TimeBucketAggregate) TimeResponse {
	resp := TimeResponse{Bucket: b.String(), Buckets: make([]TimeBucket, len(aggs))}
	for i, a := range aggs {
		resp.Buckets[i] = TimeBucket{
			Start:         a.Start,
			Count:         a.Count,
			AvgConfidence: Float(a.AvgConfidence),
			AvgNovelty:    Float(a.AvgNovelty),
		}
	}
	return resp
}
