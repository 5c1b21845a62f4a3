// ABOUTME: Interest profile service: persisted topic set, structural
// ABOUTME: change detection, rescore flag, and optional YAML seeding.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"attentiond/domain"
	"attentiond/driver"
	"attentiond/repository"
)

type profileService struct {
	profile repository.ProfileRepository
	logger  *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profile repository.ProfileRepository, logger *slog.Logger) ProfileService {
	return &profileService{
		profile: profile,
		logger:  logger,
	}
}

// Get assembles the current interest profile from the topics table and
// the preferences row.
func (s *profileService) Get(ctx context.Context) (*domain.InterestProfile, error) {
	topics, err := s.profile.Topics(ctx)
	if err != nil {
		return nil, err
	}

	description, err := s.profile.GetPreference(ctx, driver.PrefProfileDescription)
	if err != nil {
		return nil, err
	}

	fraction := domain.DefaultExplorationFraction
	if raw, err := s.profile.GetPreference(ctx, driver.PrefExplorationFraction); err != nil {
		return nil, err
	} else if raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			s.logger.WarnContext(ctx, "ignoring invalid exploration fraction", "value", raw)
		} else {
			fraction = parsed
		}
	}

	return &domain.InterestProfile{
		Description:         description,
		Topics:              topics,
		ExplorationFraction: fraction,
	}, nil
}

// Update replaces the stored profile. Adding or removing a topic is a
// structural change and conservatively sets the rescore flag; weight
// and keyword edits are picked up live by the rank formula. Reports
// whether a rescore was scheduled.
func (s *profileService) Update(ctx context.Context, profile *domain.InterestProfile) (bool, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load current profile: %w", err)
	}

	structural := current.HasStructuralChange(profile)

	now := time.Now().UTC()
	if err := s.profile.ReplaceTopics(ctx, profile.Topics, now); err != nil {
		return false, err
	}

	if err := s.profile.SetPreference(ctx, driver.PrefProfileDescription, profile.Description); err != nil {
		return false, err
	}

	if profile.ExplorationFraction > 0 && profile.ExplorationFraction < 1 {
		raw := strconv.FormatFloat(profile.ExplorationFraction, 'f', -1, 64)
		if err := s.profile.SetPreference(ctx, driver.PrefExplorationFraction, raw); err != nil {
			return false, err
		}
	}

	if structural {
		if err := s.SetNeedsRescore(ctx, true); err != nil {
			return false, err
		}
		s.logger.InfoContext(ctx, "structural profile change, rescore scheduled",
			"topics", len(profile.Topics))
	}

	return structural, nil
}

// seedFile mirrors the interests.yaml layout: a description, a topic
// list, and an optional top-level exclude list of topic names.
type seedFile struct {
	Description string                 `yaml:"description"`
	Topics      []domain.InterestTopic `yaml:"topics"`
	Exclude     []string               `yaml:"exclude"`
}

// SeedIfEmpty imports the YAML seed file when no topics are stored
// yet. A missing file is not an error; first profile write happens via
// the API instead. Reports whether seeding ran.
func (s *profileService) SeedIfEmpty(ctx context.Context, path string) (bool, error) {
	topics, err := s.profile.Topics(ctx)
	if err != nil {
		return false, err
	}
	if len(topics) > 0 {
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.InfoContext(ctx, "no interests seed file, starting with empty profile", "path", path)
			return false, nil
		}
		return false, fmt.Errorf("failed to read interests seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return false, fmt.Errorf("failed to parse interests seed: %w", err)
	}

	excluded := make(map[string]struct{}, len(seed.Exclude))
	for _, name := range seed.Exclude {
		excluded[name] = struct{}{}
	}

	for i := range seed.Topics {
		if seed.Topics[i].Weight < domain.WeightFloor {
			seed.Topics[i].Weight = domain.WeightFloor
		}
		if _, ok := excluded[seed.Topics[i].Name]; ok {
			seed.Topics[i].Excluded = true
		}
	}

	now := time.Now().UTC()
	if err := s.profile.ReplaceTopics(ctx, seed.Topics, now); err != nil {
		return false, err
	}
	if err := s.profile.SetPreference(ctx, driver.PrefProfileDescription, seed.Description); err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "interest profile seeded", "path", path, "topics", len(seed.Topics))

	return true, nil
}

// NeedsRescore reads the rescore flag. Absent means false.
func (s *profileService) NeedsRescore(ctx context.Context) (bool, error) {
	value, err := s.profile.GetPreference(ctx, driver.PrefNeedsRescore)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetNeedsRescore writes the rescore flag. Only the orchestrator
// clears it, after a completed rescore pass.
func (s *profileService) SetNeedsRescore(ctx context.Context, value bool) error {
	raw := "false"
	if value {
		raw = "true"
	}
	return s.profile.SetPreference(ctx, driver.PrefNeedsRescore, raw)
}
