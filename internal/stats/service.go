// internal/stats/service.go
// Per-post statistics summary and engagement score

package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

// Counter counts rows referencing each post
type Counter interface {
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)
}

// FlagAggregator sums the post_stats flags of one post
type FlagAggregator interface {
	AggregateFlags(ctx context.Context, postID string) (models.FlagSums, error)
}

// PostCounter checks existence and counts replies
type PostCounter interface {
	Exists(ctx context.Context, postID string) (bool, error)
	CountReplies(ctx context.Context, postIDs []string) (map[string]int, error)
}

type Service interface {
	GetStats(ctx context.Context, postID string) (*models.PostStatsSummary, error)
}

type service struct {
	likes   Counter
	reposts Counter
	flags   FlagAggregator
	posts   PostCounter
}

func NewService(likes, reposts Counter, flags FlagAggregator, posts PostCounter) Service {
	return &service{likes: likes, reposts: reposts, flags: flags, posts: posts}
}

// GetStats always returns a fully populated summary; absent rows count as zero.
func (s *service) GetStats(ctx context.Context, postID string) (*models.PostStatsSummary, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrNotFound
	}

	summary := &models.PostStatsSummary{PostID: postID}
	ids := []string{postID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.likes.CountByPosts(ctx, ids)
		summary.LikesCount = counts[postID]
		return err
	})
	g.Go(func() error {
		counts, err := s.reposts.CountByPosts(ctx, ids)
		summary.RepostCount = counts[postID]
		return err
	})
	g.Go(func() error {
		counts, err := s.posts.CountReplies(ctx, ids)
		summary.RepliesCount = counts[postID]
		return err
	})
	g.Go(func() error {
		sums, err := s.flags.AggregateFlags(ctx, postID)
		summary.FlagSums = sums
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.EngagementCount = EngagementScore(summary)
	return summary, nil
}

// EngagementScore weighs every interaction equally
func EngagementScore(s *models.PostStatsSummary) int {
	return s.FlagSums.Total() + s.LikesCount + s.RepostCount + s.RepliesCount
}
