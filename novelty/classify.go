package novelty

import "math"

// Class is a novelty decision.
type Class uint8

const (
	// NonNovel marks a score below the threshold.
	NonNovel Class = iota
	// Novel marks a score at or above the threshold.
	Novel
)

func (c Class) String() string {
	if c == Novel {
		return "novel"
	}
	return "non-novel"
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Classifier applies a fixed decision threshold to novelty scores.
type Classifier struct {
	threshold float64
}

// NewClassifier returns a classifier for threshold. The threshold must be
// finite and positive; there is no default.
func NewClassifier(threshold float64) (*Classifier, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return nil, &ThresholdConfigError{Threshold: threshold}
	}
	return &Classifier{threshold: threshold}, nil
}

// Threshold returns the decision threshold.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify returns Novel when score >= threshold.
func (c *Classifier) Classify(score float64) Class {
	if score >= c.threshold {
		return Novel
	}
	return NonNovel
}
