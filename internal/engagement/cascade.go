package engagement

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/imadgeboyega/kiekky-feed/internal/metrics"
)

// PostPurger removes every row of one store that references a post
type PostPurger interface {
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// CascadeManager purges engagement rows of a post before the post itself is removed.
// Replies are never touched; poll votes only when Votes is set.
type CascadeManager struct {
	stores Stores
	votes  PostPurger
}

// NewCascadeManager builds the cascade. Pass a nil votes purger to keep poll votes.
func NewCascadeManager(stores Stores, votes PostPurger) *CascadeManager {
	return &CascadeManager{stores: stores, votes: votes}
}

func (c *CascadeManager) OnPostDeleted(ctx context.Context, postID string) error {
	targets := map[string]PostPurger{
		"bookmarks": c.stores.Bookmarks,
		"likes":     c.stores.Likes,
		"stats":     c.stores.Stats,
		"reposts":   c.stores.Reposts,
	}
	if c.votes != nil {
		targets["poll_votes"] = c.votes
	}

	g, ctx := errgroup.WithContext(ctx)
	for name, store := range targets {
		name, store := name, store
		g.Go(func() error {
			n, err := store.DeleteByPost(ctx, postID)
			if err != nil {
				return fmt.Errorf("cascade %s: %w", name, err)
			}
			metrics.RecordCascadeDeletion(name, n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("Cascade for post %s complete", postID)
	return nil
}
