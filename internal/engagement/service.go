// internal/engagement/service.go
package engagement

import (
	"context"
	"fmt"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

// PostLookup reports whether a post exists, regardless of visibility
type PostLookup interface {
	Exists(ctx context.Context, postID string) (bool, error)
}

// Stores groups the engagement collections
type Stores struct {
	Likes     PairStore
	Bookmarks PairStore
	Reposts   PairStore
	Stats     StatsStore
}

type Service interface {
	ToggleLike(ctx context.Context, viewer models.Viewer, postID string) (bool, error)
	ToggleBookmark(ctx context.Context, viewer models.Viewer, postID string) (bool, error)
	ToggleRepost(ctx context.Context, viewer models.Viewer, postID string) (bool, error)
	RecordPostEvent(ctx context.Context, viewer models.Viewer, postID string, flag models.StatFlag) error
}

type service struct {
	stores Stores
	posts  PostLookup
}

func NewService(stores Stores, posts PostLookup) Service {
	return &service{stores: stores, posts: posts}
}

func (s *service) ToggleLike(ctx context.Context, viewer models.Viewer, postID string) (bool, error) {
	return s.toggle(ctx, s.stores.Likes, viewer, postID)
}

// ToggleBookmark keeps the viewer's isBookmarked stats flag in step with the bookmark row
func (s *service) ToggleBookmark(ctx context.Context, viewer models.Viewer, postID string) (bool, error) {
	bookmarked, err := s.toggle(ctx, s.stores.Bookmarks, viewer, postID)
	if err != nil {
		return false, err
	}
	if err := s.stores.Stats.SetFlag(ctx, postID, viewer.ID, models.FlagBookmarked, bookmarked); err != nil {
		return false, err
	}
	return bookmarked, nil
}

func (s *service) ToggleRepost(ctx context.Context, viewer models.Viewer, postID string) (bool, error) {
	return s.toggle(ctx, s.stores.Reposts, viewer, postID)
}

func (s *service) RecordPostEvent(ctx context.Context, viewer models.Viewer, postID string, flag models.StatFlag) error {
	if !flag.Valid() {
		return models.NewValidationError("flag", fmt.Sprintf("unknown stats flag %q", flag))
	}
	if err := s.requirePost(ctx, viewer, postID); err != nil {
		return err
	}
	return s.stores.Stats.SetFlag(ctx, postID, viewer.ID, flag, true)
}

func (s *service) toggle(ctx context.Context, store PairStore, viewer models.Viewer, postID string) (bool, error) {
	if err := s.requirePost(ctx, viewer, postID); err != nil {
		return false, err
	}
	return store.Toggle(ctx, postID, viewer.ID)
}

func (s *service) requirePost(ctx context.Context, viewer models.Viewer, postID string) error {
	if viewer.IsAnonymous() {
		return models.ErrUnauthenticated
	}
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.MissingReference("post", postID)
	}
	return nil
}
