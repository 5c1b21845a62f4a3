package handler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"attentiond/domain"
	"attentiond/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubReader struct {
	page *service.RankedPage
	err  error

	limit  int
	cursor string
}

func (s *stubReader) ForYou(_ context.Context, limit int, cursor string) (*service.RankedPage, error) {
	s.limit = limit
	s.cursor = cursor
	if s.err != nil {
		return nil, s.err
	}
	if s.page == nil {
		return &service.RankedPage{}, nil
	}
	return s.page, nil
}

type stubFeedback struct {
	signals []*domain.FeedbackSignal
	err     error

	articleID int64
	kind      domain.SignalKind
	magnitude float64
	topic     string
}

func (s *stubFeedback) Record(_ context.Context, articleID int64, kind domain.SignalKind, magnitude float64, topic string) ([]*domain.FeedbackSignal, error) {
	s.articleID = articleID
	s.kind = kind
	s.magnitude = magnitude
	s.topic = topic
	if s.err != nil {
		return nil, s.err
	}
	return s.signals, nil
}

type stubProfile struct {
	profile   *domain.InterestProfile
	updateErr error
	rescore   bool

	updated *domain.InterestProfile
}

func (s *stubProfile) Get(context.Context) (*domain.InterestProfile, error) {
	if s.profile == nil {
		return &domain.InterestProfile{}, nil
	}
	return s.profile, nil
}

func (s *stubProfile) Update(_ context.Context, profile *domain.InterestProfile) (bool, error) {
	if s.updateErr != nil {
		return false, s.updateErr
	}
	s.updated = profile
	s.profile = profile
	return s.rescore, nil
}

func (s *stubProfile) SeedIfEmpty(context.Context, string) (bool, error) { return false, nil }
func (s *stubProfile) NeedsRescore(context.Context) (bool, error)        { return false, nil }
func (s *stubProfile) SetNeedsRescore(context.Context, bool) error       { return nil }

type stubArticleRepo struct {
	articles map[int64]*domain.Article
	listed   []*domain.ScoredArticle
	stats    *domain.StoreStats

	lastFilter domain.ArticleFilter
	readSet    map[int64]bool
	bookmarked map[int64]bool
}

func (s *stubArticleRepo) Upsert(_ context.Context, a *domain.Article) (bool, error) {
	return false, nil
}

func (s *stubArticleRepo) FindByID(_ context.Context, id int64) (*domain.Article, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	return a, nil
}

func (s *stubArticleRepo) FindUnscored(context.Context, time.Time, int) ([]*domain.Article, error) {
	return nil, nil
}

func (s *stubArticleRepo) List(_ context.Context, filter domain.ArticleFilter) ([]*domain.ScoredArticle, error) {
	s.lastFilter = filter
	return s.listed, nil
}

func (s *stubArticleRepo) ListScored(context.Context) ([]*domain.ScoredArticle, error) {
	return s.listed, nil
}

func (s *stubArticleRepo) RetentionCandidates(context.Context, time.Time, float64) ([]*domain.ScoredArticle, error) {
	return nil, nil
}

func (s *stubArticleRepo) Archive(context.Context, []int64) (int, error) { return 0, nil }

func (s *stubArticleRepo) SetRead(_ context.Context, id int64, read bool) error {
	if _, ok := s.articles[id]; !ok {
		return domain.ErrArticleNotFound
	}
	if s.readSet == nil {
		s.readSet = map[int64]bool{}
	}
	s.readSet[id] = read
	return nil
}

func (s *stubArticleRepo) SetBookmarked(_ context.Context, id int64, bookmarked bool) error {
	if _, ok := s.articles[id]; !ok {
		return domain.ErrArticleNotFound
	}
	if s.bookmarked == nil {
		s.bookmarked = map[int64]bool{}
	}
	s.bookmarked[id] = bookmarked
	return nil
}

func (s *stubArticleRepo) LikedIDs(context.Context) (map[int64]struct{}, error) {
	return nil, nil
}

func (s *stubArticleRepo) Stats(context.Context) (*domain.StoreStats, error) {
	if s.stats == nil {
		return &domain.StoreStats{}, nil
	}
	return s.stats, nil
}

type stubScoreRepo struct {
	scores map[int64]*domain.Score
}

func (s *stubScoreRepo) Upsert(context.Context, *domain.Score) error { return nil }

func (s *stubScoreRepo) FindByArticleID(_ context.Context, id int64) (*domain.Score, error) {
	return s.scores[id], nil
}

func (s *stubScoreRepo) UpdateRanks(context.Context, map[int64]float64) error { return nil }

func (s *stubScoreRepo) DeleteFetchedAfter(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubFeedRepo struct {
	feeds     []*domain.Feed
	createErr error

	created  *domain.Feed
	deleted  int64
	enabled  map[int64]bool
	lastOnly bool
}

func (s *stubFeedRepo) Create(_ context.Context, feed *domain.Feed) error {
	if s.createErr != nil {
		return s.createErr
	}
	feed.ID = int64(len(s.feeds) + 1)
	s.created = feed
	s.feeds = append(s.feeds, feed)
	return nil
}

func (s *stubFeedRepo) List(_ context.Context, enabledOnly bool) ([]*domain.Feed, error) {
	s.lastOnly = enabledOnly
	if !enabledOnly {
		return s.feeds, nil
	}
	var out []*domain.Feed
	for _, f := range s.feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubFeedRepo) FindByID(_ context.Context, feedID int64) (*domain.Feed, error) {
	for _, f := range s.feeds {
		if f.ID == feedID {
			return f, nil
		}
	}
	return nil, domain.ErrFeedNotFound
}

func (s *stubFeedRepo) Delete(_ context.Context, feedID int64) error {
	if _, err := s.FindByID(context.Background(), feedID); err != nil {
		return err
	}
	s.deleted = feedID
	return nil
}

func (s *stubFeedRepo) SetEnabled(_ context.Context, feedID int64, enabled bool) error {
	if _, err := s.FindByID(context.Background(), feedID); err != nil {
		return err
	}
	if s.enabled == nil {
		s.enabled = map[int64]bool{}
	}
	s.enabled[feedID] = enabled
	return nil
}

func (s *stubFeedRepo) MarkFetched(context.Context, int64, time.Time) error { return nil }

type stubStateRepo struct {
	state domain.CycleState
}

func (s *stubStateRepo) Get(context.Context) (*domain.CycleState, error) {
	st := s.state
	return &st, nil
}

func (s *stubStateRepo) Update(context.Context, *domain.CycleState) error { return nil }
