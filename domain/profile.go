package domain

import (
	"sort"
	"time"
)

// WeightFloor is the hard minimum for topic weights. Negative feedback
// can never push a topic below it, so no topic is starved to zero
// visibility.
const WeightFloor = 1.0

// DefaultExplorationFraction is the share of ranked slots reserved for
// below-median-weight topics.
const DefaultExplorationFraction = 0.10

// InterestTopic is a named category with a learned weight.
// Weight is mutated only by the weight adapter; structure (add/remove)
// only by explicit profile edits.
type InterestTopic struct {
	UpdatedAt time.Time `db:"updated_at" json:"-" yaml:"-"`
	Name      string    `db:"name" json:"name" yaml:"name"`
	Keywords  []string  `db:"keywords" json:"keywords" yaml:"keywords"`
	Weight    float64   `db:"weight" json:"weight" yaml:"weight"`
	Excluded  bool      `db:"excluded" json:"excluded" yaml:"excluded,omitempty"`
}

// InterestProfile is the ordered set of interest topics plus the
// selection-time exploration policy. It is passed explicitly into every
// ranking and adaptation call; there is no ambient current profile.
type InterestProfile struct {
	Description         string          `json:"description" yaml:"description"`
	Topics              []InterestTopic `json:"topics" yaml:"topics"`
	ExplorationFraction float64         `json:"exploration_fraction" yaml:"exploration_fraction,omitempty"`
}

// TopicNames returns the set of topic names in the profile.
func (p *InterestProfile) TopicNames() map[string]struct{} {
	names := make(map[string]struct{}, len(p.Topics))
	for _, t := range p.Topics {
		names[t.Name] = struct{}{}
	}
	return names
}

// MedianWeight returns the median of all topic weights. An empty
// profile yields the weight floor.
func (p *InterestProfile) MedianWeight() float64 {
	if len(p.Topics) == 0 {
		return WeightFloor
	}
	weights := make([]float64, len(p.Topics))
	for i, t := range p.Topics {
		weights[i] = t.Weight
	}
	sort.Float64s(weights)
	mid := len(weights) / 2
	if len(weights)%2 == 1 {
		return weights[mid]
	}
	return (weights[mid-1] + weights[mid]) / 2
}

// HasStructuralChange reports whether the topic name set differs from
// other. Weight-only or keyword-only edits are not structural; the rank
// formula picks those up live, while structural changes require a
// rescore pass.
func (p *InterestProfile) HasStructuralChange(other *InterestProfile) bool {
	oldNames := p.TopicNames()
	newNames := other.TopicNames()
	if len(oldNames) != len(newNames) {
		return true
	}
	for name := range oldNames {
		if _, ok := newNames[name]; !ok {
			return true
		}
	}
	return false
}
