// ABOUTME: Weight adapter: folds accumulated feedback signals into
// ABOUTME: bounded per-topic interest weight updates, one tick at a time.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attentiond/domain"
	"attentiond/repository"
)

// Adaptation tuning. The cold-start gate keeps a topic's weight frozen
// until enough qualifying engagement has accumulated; the step shrinks
// as volume grows so well-observed topics move slowly.
const (
	coldStartVolume = 5.0

	stepSmall  = 0.5
	stepMedium = 0.2
	stepLarge  = 0.1

	smallVolumeLimit  = 10.0
	mediumVolumeLimit = 50.0

	saveWeight = 2.0

	// One minute of qualifying dwell counts like one like.
	dwellSecondsPerLike = 60.0
)

type adapterService struct {
	signals repository.SignalRepository
	profile repository.ProfileRepository
	state   repository.CycleStateRepository
	logger  *slog.Logger
}

// NewAdapterService creates a new weight adapter service.
func NewAdapterService(signals repository.SignalRepository, profile repository.ProfileRepository, state repository.CycleStateRepository, logger *slog.Logger) AdapterService {
	return &adapterService{
		signals: signals,
		profile: profile,
		state:   state,
		logger:  logger,
	}
}

// Tick consumes all signals recorded since the previous tick and
// applies at most one bounded weight step per topic. Counters for
// topics still under the cold-start gate keep accumulating; counters
// for adapted topics reset. The whole outcome commits in a single
// transaction together with the advanced signal watermark, so a
// cancelled tick leaves no partial adaptation behind.
func (s *adapterService) Tick(ctx context.Context) (*domain.AdaptationResult, error) {
	state, err := s.state.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cycle state: %w", err)
	}

	signals, err := s.signals.ListSince(ctx, state.LastSignalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending signals: %w", err)
	}

	if len(signals) == 0 {
		s.logger.InfoContext(ctx, "no pending signals, skipping adaptation tick")
		return &domain.AdaptationResult{Watermark: state.LastSignalID}, nil
	}

	counters, err := s.signals.Counters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}

	topics, err := s.profile.Topics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}

	now := time.Now().UTC()
	accumulate(counters, signals, now)

	weights := make(map[string]float64)
	gated := 0

	for i := range topics {
		topic := &topics[i]
		c, ok := counters[topic.Name]
		if !ok || c.Volume == 0 {
			continue
		}

		if c.Volume < coldStartVolume {
			gated++
			continue
		}

		if next, changed := adaptWeight(topic.Weight, c); changed {
			weights[topic.Name] = next
		}

		// Consumed either way: the gate was open.
		resetCounters(c, now)
	}

	watermark := signals[len(signals)-1].ID

	if err := s.signals.ApplyAdaptation(ctx, counters, weights, watermark, now); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "adaptation tick complete",
		"signals", len(signals),
		"adapted_topics", len(weights),
		"gated_topics", gated,
		"watermark", watermark)

	return &domain.AdaptationResult{
		AdaptedTopics:   len(weights),
		ConsumedSignals: len(signals),
		GatedTopics:     gated,
		Watermark:       watermark,
	}, nil
}

// accumulate folds signals into the rolling counters. Each signal
// contributes its qualifying weight: zero for out-of-window dwell, half
// when the originating score had sub-threshold confidence.
func accumulate(counters map[string]*domain.SignalCounters, signals []*domain.FeedbackSignal, now time.Time) {
	for _, sig := range signals {
		w := sig.QualifyingWeight()
		if w == 0 {
			continue
		}

		c, ok := counters[sig.Topic]
		if !ok {
			c = &domain.SignalCounters{Topic: sig.Topic}
			counters[sig.Topic] = c
		}

		switch sig.Kind {
		case domain.SignalLike:
			c.Likes += w
		case domain.SignalDislike:
			c.Dislikes += w
		case domain.SignalSave:
			c.Saves += w
		case domain.SignalDwell:
			c.DwellSeconds += sig.Magnitude * w
		}

		c.Volume += w
		c.UpdatedAt = now
	}
}

// adaptWeight computes one bounded step for an open-gate topic.
// Direction comes from the sign of weighted positive minus negative
// engagement; the step size shrinks with volume; the floor is hard.
func adaptWeight(current float64, c *domain.SignalCounters) (float64, bool) {
	positive := c.Likes + saveWeight*c.Saves + c.DwellSeconds/dwellSecondsPerLike
	negative := c.Dislikes

	if positive == negative {
		return current, false
	}

	step := stepLarge
	switch {
	case c.Volume < smallVolumeLimit:
		step = stepSmall
	case c.Volume < mediumVolumeLimit:
		step = stepMedium
	}

	next := current + step
	if positive < negative {
		next = current - step
	}

	if next < domain.WeightFloor {
		next = domain.WeightFloor
	}

	if next == current {
		return current, false
	}

	return next, true
}

func resetCounters(c *domain.SignalCounters, now time.Time) {
	c.Likes = 0
	c.Dislikes = 0
	c.Saves = 0
	c.DwellSeconds = 0
	c.Volume = 0
	c.UpdatedAt = now
}
