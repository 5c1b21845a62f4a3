package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attentiond/domain"
)

func retentionCandidate(id int64, fetchedAgo time.Duration, rank float64, now time.Time) *domain.ScoredArticle {
	return &domain.ScoredArticle{
		Article: &domain.Article{ID: id, FetchedAt: now.Add(-fetchedAgo)},
		Score:   &domain.Score{ArticleID: id, Rank: rank},
	}
}

func TestRetentionService_Archive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour

	t.Run("should archive old low-rank articles", func(t *testing.T) {
		repo := &fakeArticleRepo{candidates: []*domain.ScoredArticle{
			retentionCandidate(1, 8*24*time.Hour, 2.1, now),
			retentionCandidate(2, 9*24*time.Hour, 1.4, now),
		}}
		svc := NewRetentionService(repo, week, 3.0, testLogger())

		ids, err := svc.Archive(ctx, now)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, ids)
		assert.ElementsMatch(t, []int64{1, 2}, repo.archivedIDs)
	})

	t.Run("should leave fresh or well-ranked articles alone", func(t *testing.T) {
		repo := &fakeArticleRepo{candidates: []*domain.ScoredArticle{
			retentionCandidate(1, 2*24*time.Hour, 1.0, now),  // fresh
			retentionCandidate(2, 10*24*time.Hour, 6.5, now), // ranked well
		}}
		svc := NewRetentionService(repo, week, 3.0, testLogger())

		ids, err := svc.Archive(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, repo.archivedIDs)
	})

	t.Run("should exempt liked articles", func(t *testing.T) {
		repo := &fakeArticleRepo{
			candidates: []*domain.ScoredArticle{
				retentionCandidate(1, 8*24*time.Hour, 2.0, now),
				retentionCandidate(2, 8*24*time.Hour, 2.0, now),
			},
			liked: map[int64]struct{}{1: {}},
		}
		svc := NewRetentionService(repo, week, 3.0, testLogger())

		ids, err := svc.Archive(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, ids)
	})

	t.Run("should exempt bookmarked articles", func(t *testing.T) {
		bookmarked := retentionCandidate(3, 8*24*time.Hour, 2.0, now)
		bookmarked.Article.IsBookmarked = true

		repo := &fakeArticleRepo{candidates: []*domain.ScoredArticle{bookmarked}}
		svc := NewRetentionService(repo, week, 3.0, testLogger())

		ids, err := svc.Archive(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("should return nothing when every candidate is exempt", func(t *testing.T) {
		repo := &fakeArticleRepo{
			candidates: []*domain.ScoredArticle{
				retentionCandidate(1, 8*24*time.Hour, 2.0, now),
			},
			liked: map[int64]struct{}{1: {}},
		}
		svc := NewRetentionService(repo, week, 3.0, testLogger())

		ids, err := svc.Archive(ctx, now)
		require.NoError(t, err)
		assert.Nil(t, ids)
		assert.Empty(t, repo.archivedIDs)
	})
}
