package domain

import (
	"time"
)

// SignalKind classifies a feedback signal.
type SignalKind string

const (
	SignalLike    SignalKind = "like"
	SignalDislike SignalKind = "dislike"
	SignalSave    SignalKind = "save"
	SignalDwell   SignalKind = "dwell"
)

// ValidSignalKind reports whether k is a known feedback kind.
func ValidSignalKind(k SignalKind) bool {
	switch k {
	case SignalLike, SignalDislike, SignalSave, SignalDwell:
		return true
	}
	return false
}

// Dwell signals outside this window are discarded as noise (too short)
// or abandonment (too long). Seconds.
const (
	DwellMinSeconds = 10.0
	DwellMaxSeconds = 300.0
)

// ConfidenceThreshold is the topic-confidence level below which a
// signal's contribution to adaptation is discounted to half weight.
const ConfidenceThreshold = 0.5

// FeedbackSignal is one append-only feedback event, attributed to a
// topic. Confidence is captured from the originating score at write
// time so the adapter can discount low-confidence attributions without
// a join back to scores.
type FeedbackSignal struct {
	CreatedAt  time.Time  `db:"created_at"`
	Topic      string     `db:"topic"`
	Kind       SignalKind `db:"kind"`
	ID         int64      `db:"id"`
	ArticleID  int64      `db:"article_id"`
	Magnitude  float64    `db:"magnitude"`
	Confidence float64    `db:"confidence"`
}

// QualifyingWeight returns the signal's contribution to engagement
// volume: zero for out-of-window dwell, half for sub-threshold
// confidence, one otherwise.
func (s *FeedbackSignal) QualifyingWeight() float64 {
	if s.Kind == SignalDwell && (s.Magnitude < DwellMinSeconds || s.Magnitude > DwellMaxSeconds) {
		return 0
	}
	if s.Confidence < ConfidenceThreshold {
		return 0.5
	}
	return 1.0
}

// SignalCounters holds the rolling per-topic engagement tallies. They
// accumulate across ticks until the cold-start gate opens, then reset
// when consumed by an adaptation step. The raw signal log is retained
// regardless.
type SignalCounters struct {
	UpdatedAt    time.Time `db:"updated_at"`
	Topic        string    `db:"topic"`
	Likes        float64   `db:"likes"`
	Dislikes     float64   `db:"dislikes"`
	Saves        float64   `db:"saves"`
	DwellSeconds float64   `db:"dwell_seconds"`
	Volume       float64   `db:"volume"`
}
