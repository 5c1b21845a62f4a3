// ABOUTME: Exploration-floor selection: interleaves below-median-weight
// ABOUTME: topics into the ranked order and drives cursor pagination.
package service

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"attentiond/domain"
)

// mergeWithExploration splits ranked articles into a main pool and an
// exploration pool (best matching topic weight strictly below the
// profile's median) and reserves every floor(1/fraction)-th slot for
// the exploration pool. Both pools order by rank descending, id
// descending, so the merged order is deterministic.
func mergeWithExploration(ranked []*RankedArticle, profile *domain.InterestProfile) []*RankedArticle {
	if len(ranked) == 0 {
		return nil
	}

	fraction := profile.ExplorationFraction
	if fraction <= 0 || fraction >= 1 {
		fraction = domain.DefaultExplorationFraction
	}
	interval := int(1 / fraction)

	median := profile.MedianWeight()

	var main, explore []*RankedArticle
	for _, ra := range ranked {
		if _, weight := BestTopic(ra.Score.Topics, profile); weight < median {
			explore = append(explore, ra)
		} else {
			main = append(main, ra)
		}
	}

	sortPool(main)
	sortPool(explore)

	merged := make([]*RankedArticle, 0, len(ranked))
	mainIdx, exploreIdx := 0, 0

	for position := 1; mainIdx < len(main) || exploreIdx < len(explore); position++ {
		switch {
		case position%interval == 0 && exploreIdx < len(explore):
			merged = append(merged, explore[exploreIdx])
			exploreIdx++
		case mainIdx < len(main):
			merged = append(merged, main[mainIdx])
			mainIdx++
		default:
			merged = append(merged, explore[exploreIdx])
			exploreIdx++
		}
	}

	return merged
}

func sortPool(pool []*RankedArticle) {
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Rank != pool[j].Rank {
			return pool[i].Rank > pool[j].Rank
		}
		return pool[i].Article.ID > pool[j].Article.ID
	})
}

// encodeCursor packs rank:id as a urlsafe base64 continuation token.
func encodeCursor(rank float64, articleID int64) string {
	raw := fmt.Sprintf("%v:%d", rank, articleID)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor unpacks a continuation token. Malformed cursors yield
// ok=false and callers fall back to the first page.
func decodeCursor(cursor string) (rank float64, articleID int64, ok bool) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, 0, false
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	rank, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}

	articleID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return rank, articleID, true
}

// pageAfterCursor cuts the merged order at the cursor position. The
// cursor article is located by id; if it left the listing since the
// cursor was issued, filtering falls back to the rank ordering.
func pageAfterCursor(merged []*RankedArticle, cursorRank float64, cursorID int64) []*RankedArticle {
	for i, ra := range merged {
		if ra.Article.ID == cursorID {
			return merged[i+1:]
		}
	}

	var rest []*RankedArticle
	for _, ra := range merged {
		if ra.Rank < cursorRank || (ra.Rank == cursorRank && ra.Article.ID < cursorID) {
			rest = append(rest, ra)
		}
	}
	return rest
}
