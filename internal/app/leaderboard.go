package app

import (
	"context"
	"fmt"
	"sort"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

// guestEmail labels leaderboard rows whose user document is missing or
// unreadable.
const guestEmail = "Guest User"

// Leaderboard projects the attempt ledger into a ranked view. It holds no
// state and is safe to recompute on every call.
type Leaderboard struct {
	store store.Store
}

func NewLeaderboard(s store.Store) *Leaderboard {
	return &Leaderboard{store: s}
}

// Rank returns the attempts for a quiz ordered by score descending, ties
// broken by time taken ascending. The sort is stable, so attempts equal on
// both keys keep their store-return order and repeated calls over unchanged
// data produce a repeatable ranking. Ranks are 1-based positions with no
// gaps and no sharing.
func (lb *Leaderboard) Rank(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	docs, err := lb.store.Query(ctx, store.CollectionAttempts, store.Eq("quizId", quizID))
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.Attempt, 0, len(docs))
	for _, doc := range docs {
		var attempt domain.Attempt
		if err := store.Decode(doc, &attempt); err != nil {
			return nil, fmt.Errorf("%w: attempt %s: %v", domain.ErrDataIntegrity, doc.ID, err)
		}
		attempts = append(attempts, attempt)
	}

	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Score != attempts[j].Score {
			return attempts[i].Score > attempts[j].Score
		}
		return attempts[i].TimeTaken < attempts[j].TimeTaken
	})

	entries := make([]domain.LeaderboardEntry, 0, len(attempts))
	for i, attempt := range attempts {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:       i + 1,
			UID:        attempt.UID,
			Email:      lb.resolveEmail(ctx, attempt.UID),
			Score:      attempt.Score,
			Percentage: attempt.Percentage,
			TimeTaken:  attempt.TimeTaken,
		})
	}
	return entries, nil
}

// resolveEmail enriches a row from the users collection. A missing or
// unreadable user document downgrades to the guest label rather than
// failing the whole projection.
func (lb *Leaderboard) resolveEmail(ctx context.Context, uid string) string {
	doc, err := lb.store.Get(ctx, store.CollectionUsers, uid)
	if err != nil {
		return guestEmail
	}
	var user domain.User
	if err := store.Decode(doc, &user); err != nil || user.Email == "" {
		return guestEmail
	}
	return user.Email
}
