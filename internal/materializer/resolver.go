// internal/materializer/resolver.go
// Narrow lookups composed by the materializer. Each one is a single batched query.

package materializer

import (
	"context"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/engagement"
	"github.com/imadgeboyega/kiekky-feed/internal/polls"
	"github.com/imadgeboyega/kiekky-feed/internal/users"
)

// RelationResolver fetches every relation a materialized post needs
type RelationResolver interface {
	Profiles(ctx context.Context, userIDs []string) (map[string]models.UserView, error)
	PostsByIDs(ctx context.Context, postIDs []string) (map[string]*models.Post, error)
	ReplyCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	RepostCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	LikeCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	ViewCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	ViewerStats(ctx context.Context, viewerID string, postIDs []string) (map[string]models.PostStatsRow, error)
	ViewerLiked(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	ViewerBookmarked(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	ViewerReposted(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	VoteTallies(ctx context.Context, postIDs []string) (map[string]map[int]int, error)
	ViewerVotes(ctx context.Context, viewerID string, postIDs []string) (map[string]int, error)
}

// PostSource is the part of the post store the resolver reads
type PostSource interface {
	GetByIDs(ctx context.Context, postIDs []string) (map[string]*models.Post, error)
	CountReplies(ctx context.Context, postIDs []string) (map[string]int, error)
}

// StoreResolver answers RelationResolver lookups from the storage layer
type StoreResolver struct {
	Users  users.Directory
	Posts  PostSource
	Stores engagement.Stores
	Votes  polls.VoteStore
}

func (r *StoreResolver) Profiles(ctx context.Context, userIDs []string) (map[string]models.UserView, error) {
	return r.Users.PublicProfiles(ctx, userIDs)
}

func (r *StoreResolver) PostsByIDs(ctx context.Context, postIDs []string) (map[string]*models.Post, error) {
	return r.Posts.GetByIDs(ctx, postIDs)
}

func (r *StoreResolver) ReplyCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return r.Posts.CountReplies(ctx, postIDs)
}

func (r *StoreResolver) RepostCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return r.Stores.Reposts.CountByPosts(ctx, postIDs)
}

func (r *StoreResolver) LikeCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return r.Stores.Likes.CountByPosts(ctx, postIDs)
}

func (r *StoreResolver) ViewCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return r.Stores.Stats.CountViewed(ctx, postIDs)
}

func (r *StoreResolver) ViewerStats(ctx context.Context, viewerID string, postIDs []string) (map[string]models.PostStatsRow, error) {
	return r.Stores.Stats.ViewerRows(ctx, viewerID, postIDs)
}

func (r *StoreResolver) ViewerLiked(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	return r.Stores.Likes.ViewerHas(ctx, viewerID, postIDs)
}

func (r *StoreResolver) ViewerBookmarked(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	return r.Stores.Bookmarks.ViewerHas(ctx, viewerID, postIDs)
}

func (r *StoreResolver) ViewerReposted(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	return r.Stores.Reposts.ViewerHas(ctx, viewerID, postIDs)
}

func (r *StoreResolver) VoteTallies(ctx context.Context, postIDs []string) (map[string]map[int]int, error) {
	return r.Votes.Tallies(ctx, postIDs)
}

func (r *StoreResolver) ViewerVotes(ctx context.Context, viewerID string, postIDs []string) (map[string]int, error) {
	return r.Votes.ViewerVotes(ctx, viewerID, postIDs)
}
