package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"attentiond/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory repository fakes shared by the service tests.

type fakeSignalRepo struct {
	signals  []*domain.FeedbackSignal
	counters map[string]*domain.SignalCounters

	recorded []*domain.FeedbackSignal

	appliedCounters  map[string]*domain.SignalCounters
	appliedWeights   map[string]float64
	appliedWatermark int64
	applyErr         error
}

func (f *fakeSignalRepo) Record(_ context.Context, signal *domain.FeedbackSignal) error {
	signal.ID = int64(len(f.signals) + len(f.recorded) + 1)
	f.recorded = append(f.recorded, signal)
	return nil
}

func (f *fakeSignalRepo) ListSince(_ context.Context, afterID int64) ([]*domain.FeedbackSignal, error) {
	var out []*domain.FeedbackSignal
	for _, s := range f.signals {
		if s.ID > afterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalRepo) Counters(_ context.Context) (map[string]*domain.SignalCounters, error) {
	if f.counters == nil {
		return map[string]*domain.SignalCounters{}, nil
	}
	return f.counters, nil
}

func (f *fakeSignalRepo) ApplyAdaptation(_ context.Context, counters map[string]*domain.SignalCounters, weights map[string]float64, watermark int64, _ time.Time) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.appliedCounters = counters
	f.appliedWeights = weights
	f.appliedWatermark = watermark
	return nil
}

type fakeFeedRepo struct {
	feeds   []*domain.Feed
	fetched map[int64]time.Time
}

func (f *fakeFeedRepo) Create(_ context.Context, feed *domain.Feed) error {
	feed.ID = int64(len(f.feeds) + 1)
	f.feeds = append(f.feeds, feed)
	return nil
}

func (f *fakeFeedRepo) List(_ context.Context, enabledOnly bool) ([]*domain.Feed, error) {
	var out []*domain.Feed
	for _, fd := range f.feeds {
		if enabledOnly && !fd.Enabled {
			continue
		}
		out = append(out, fd)
	}
	return out, nil
}

func (f *fakeFeedRepo) FindByID(_ context.Context, feedID int64) (*domain.Feed, error) {
	for _, fd := range f.feeds {
		if fd.ID == feedID {
			return fd, nil
		}
	}
	return nil, domain.ErrFeedNotFound
}

func (f *fakeFeedRepo) Delete(_ context.Context, feedID int64) error {
	for i, fd := range f.feeds {
		if fd.ID == feedID {
			f.feeds = append(f.feeds[:i], f.feeds[i+1:]...)
			return nil
		}
	}
	return domain.ErrFeedNotFound
}

func (f *fakeFeedRepo) SetEnabled(_ context.Context, feedID int64, enabled bool) error {
	fd, err := f.FindByID(context.Background(), feedID)
	if err != nil {
		return err
	}
	fd.Enabled = enabled
	return nil
}

func (f *fakeFeedRepo) MarkFetched(_ context.Context, feedID int64, at time.Time) error {
	if f.fetched == nil {
		f.fetched = map[int64]time.Time{}
	}
	f.fetched[feedID] = at
	return nil
}

type fakeProfileRepo struct {
	topics []domain.InterestTopic
	prefs  map[string]string

	replacedTopics []domain.InterestTopic
}

func (f *fakeProfileRepo) Topics(_ context.Context) ([]domain.InterestTopic, error) {
	return f.topics, nil
}

func (f *fakeProfileRepo) ReplaceTopics(_ context.Context, topics []domain.InterestTopic, _ time.Time) error {
	f.replacedTopics = topics
	f.topics = topics
	return nil
}

func (f *fakeProfileRepo) GetPreference(_ context.Context, key string) (string, error) {
	return f.prefs[key], nil
}

func (f *fakeProfileRepo) SetPreference(_ context.Context, key, value string) error {
	if f.prefs == nil {
		f.prefs = map[string]string{}
	}
	f.prefs[key] = value
	return nil
}

type fakeStateRepo struct {
	state   domain.CycleState
	updated *domain.CycleState
}

func (f *fakeStateRepo) Get(_ context.Context) (*domain.CycleState, error) {
	s := f.state
	return &s, nil
}

func (f *fakeStateRepo) Update(_ context.Context, state *domain.CycleState) error {
	f.updated = state
	f.state = *state
	return nil
}

type fakeArticleRepo struct {
	articles   map[int64]*domain.Article
	scored     []*domain.ScoredArticle
	candidates []*domain.ScoredArticle
	liked      map[int64]struct{}

	archivedIDs []int64
}

func (f *fakeArticleRepo) Upsert(_ context.Context, article *domain.Article) (bool, error) {
	if f.articles == nil {
		f.articles = map[int64]*domain.Article{}
	}
	for _, a := range f.articles {
		if a.URL == article.URL {
			return false, nil
		}
	}
	article.ID = int64(len(f.articles) + 1)
	f.articles[article.ID] = article
	return true, nil
}

func (f *fakeArticleRepo) FindByID(_ context.Context, articleID int64) (*domain.Article, error) {
	a, ok := f.articles[articleID]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	return a, nil
}

func (f *fakeArticleRepo) FindUnscored(_ context.Context, _ time.Time, limit int) ([]*domain.Article, error) {
	var out []*domain.Article
	seen := map[int64]struct{}{}
	for _, sa := range f.scored {
		seen[sa.Article.ID] = struct{}{}
	}
	for _, a := range f.articles {
		if _, ok := seen[a.ID]; !ok {
			out = append(out, a)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) List(_ context.Context, _ domain.ArticleFilter) ([]*domain.ScoredArticle, error) {
	return f.scored, nil
}

func (f *fakeArticleRepo) ListScored(_ context.Context) ([]*domain.ScoredArticle, error) {
	return f.scored, nil
}

func (f *fakeArticleRepo) RetentionCandidates(_ context.Context, cutoff time.Time, rankThreshold float64) ([]*domain.ScoredArticle, error) {
	var out []*domain.ScoredArticle
	for _, sa := range f.candidates {
		if sa.Article.FetchedAt.Before(cutoff) && sa.Score.Rank < rankThreshold && !sa.Article.IsBookmarked {
			out = append(out, sa)
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) Archive(_ context.Context, articleIDs []int64) (int, error) {
	f.archivedIDs = append(f.archivedIDs, articleIDs...)
	return len(articleIDs), nil
}

func (f *fakeArticleRepo) SetRead(_ context.Context, articleID int64, read bool) error {
	a, ok := f.articles[articleID]
	if !ok {
		return domain.ErrArticleNotFound
	}
	a.IsRead = read
	return nil
}

func (f *fakeArticleRepo) SetBookmarked(_ context.Context, articleID int64, bookmarked bool) error {
	a, ok := f.articles[articleID]
	if !ok {
		return domain.ErrArticleNotFound
	}
	a.IsBookmarked = bookmarked
	return nil
}

func (f *fakeArticleRepo) LikedIDs(_ context.Context) (map[int64]struct{}, error) {
	if f.liked == nil {
		return map[int64]struct{}{}, nil
	}
	return f.liked, nil
}

func (f *fakeArticleRepo) Stats(_ context.Context) (*domain.StoreStats, error) {
	return &domain.StoreStats{Articles: len(f.articles)}, nil
}

type fakeScoreRepo struct {
	mu     sync.Mutex
	scores map[int64]*domain.Score

	ranks        map[int64]float64
	deletedAfter time.Time
	deletedCount int64
}

func (f *fakeScoreRepo) Upsert(_ context.Context, score *domain.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scores == nil {
		f.scores = map[int64]*domain.Score{}
	}
	f.scores[score.ArticleID] = score
	return nil
}

func (f *fakeScoreRepo) FindByArticleID(_ context.Context, articleID int64) (*domain.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[articleID], nil
}

func (f *fakeScoreRepo) UpdateRanks(_ context.Context, ranks map[int64]float64) error {
	f.ranks = ranks
	return nil
}

func (f *fakeScoreRepo) DeleteFetchedAfter(_ context.Context, cutoff time.Time) (int64, error) {
	f.deletedAfter = cutoff
	return f.deletedCount, nil
}

type fakeOracle struct {
	results map[int64]*domain.ScoreResult
	err     error
	calls   atomic.Int32
}

func (f *fakeOracle) Evaluate(_ context.Context, article *domain.Article, _ *domain.InterestProfile) (*domain.ScoreResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[article.ID]; ok {
		return r, nil
	}
	return &domain.ScoreResult{Relevance: 5, Significance: 5, Confidence: 0.8, Topics: []string{"misc"}}, nil
}
