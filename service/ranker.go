// ABOUTME: Pure composite ranking math shared by listing, rank
// ABOUTME: materialization, and the exploration pool split.
package service

import (
	"math"
	"strings"
	"time"

	"attentiond/domain"
)

// Rank computes the composite rank for a scored article:
//
//	base = relevance * (max_topic_weight / 10) + significance * 0.3 + recency
//	recency = 2 * exp(-age_hours / 48)
//
// Read articles keep 30% of their rank. The result depends only on the
// arguments; now is the single time input.
func Rank(article *domain.Article, score *domain.Score, profile *domain.InterestProfile, now time.Time) float64 {
	maxWeight := MaxTopicWeight(score.Topics, profile)

	rank := score.Relevance*maxWeight/10 +
		score.Significance*0.3 +
		recencyBonus(article, now)

	if article.IsRead {
		rank *= 0.3
	}

	return rank
}

// MaxTopicWeight returns the highest weight among profile topics
// matching any of the score topics. Multi-topic articles use only the
// single best topic, and a miss falls back to the weight floor so
// significance and recency still produce a baseline rank.
func MaxTopicWeight(scoreTopics []string, profile *domain.InterestProfile) float64 {
	_, weight := BestTopic(scoreTopics, profile)
	return weight
}

// BestTopic returns the highest-weight matching profile topic and its
// weight. Equal weights tie-break on the lexicographically smaller
// topic name. No match yields ("", WeightFloor).
func BestTopic(scoreTopics []string, profile *domain.InterestProfile) (string, float64) {
	if len(scoreTopics) == 0 || len(profile.Topics) == 0 {
		return "", domain.WeightFloor
	}

	lowered := make([]string, len(scoreTopics))
	for i, t := range scoreTopics {
		lowered[i] = strings.ToLower(t)
	}

	bestName := ""
	bestWeight := 0.0

	for _, topic := range profile.Topics {
		if topic.Excluded {
			continue
		}
		if !matchesAny(lowered, &topic) {
			continue
		}
		if topic.Weight > bestWeight || (topic.Weight == bestWeight && (bestName == "" || topic.Name < bestName)) {
			bestName = topic.Name
			bestWeight = topic.Weight
		}
	}

	if bestWeight <= 0 {
		return "", domain.WeightFloor
	}

	return bestName, bestWeight
}

// matchesAny reports whether any score topic matches the profile topic
// by name or keyword, case-insensitively, with substring containment in
// either direction.
func matchesAny(loweredScoreTopics []string, topic *domain.InterestTopic) bool {
	name := strings.ToLower(topic.Name)

	for _, st := range loweredScoreTopics {
		if st == name || strings.Contains(st, name) || strings.Contains(name, st) {
			return true
		}
		for _, kw := range topic.Keywords {
			kwLower := strings.ToLower(kw)
			if strings.Contains(st, kwLower) || strings.Contains(kwLower, st) {
				return true
			}
		}
	}

	return false
}

// recencyBonus decays from 2 at age zero toward 0 past four days. An
// article with no date information is treated as fresh.
func recencyBonus(article *domain.Article, now time.Time) float64 {
	published := article.EffectivePublishedAt()
	if published == nil {
		return 2.0
	}

	ageHours := now.Sub(*published).Hours()
	if ageHours < 0 {
		ageHours = 0
	}

	return 2 * math.Exp(-ageHours/48)
}
