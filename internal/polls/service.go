// internal/polls/service.go
package polls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/metrics"
)

// PostLoader loads a post regardless of visibility; missing posts yield models.ErrNotFound
type PostLoader interface {
	LoadPost(ctx context.Context, postID string) (*models.Post, error)
}

type Service interface {
	CastVote(ctx context.Context, viewer models.Viewer, postID string, optionIdx int) (*models.PollVote, error)
}

type service struct {
	votes VoteStore
	posts PostLoader
	now   func() time.Time
}

func NewService(votes VoteStore, posts PostLoader) Service {
	return &service{votes: votes, posts: posts, now: time.Now}
}

// CastVote moves the viewer from not voted to voted. There is no way back.
func (s *service) CastVote(ctx context.Context, viewer models.Viewer, postID string, optionIdx int) (*models.PollVote, error) {
	vote, err := s.castVote(ctx, viewer, postID, optionIdx)
	metrics.RecordPollVote(voteOutcome(err))
	return vote, err
}

func (s *service) castVote(ctx context.Context, viewer models.Viewer, postID string, optionIdx int) (*models.PollVote, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}

	post, err := s.posts.LoadPost(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.MissingReference("post", postID)
	}
	if err != nil {
		return nil, err
	}
	if post.Poll == nil {
		return nil, models.MissingReference("poll of post", postID)
	}

	if optionIdx < 0 || optionIdx >= len(post.Poll.Options) {
		return nil, fmt.Errorf("option %d of %d: %w", optionIdx, len(post.Poll.Options), models.ErrInvalidOption)
	}

	if s.now().After(post.Poll.ClosesAt(post.CreatedAt)) {
		return nil, models.ErrVotingClosed
	}

	vote := &models.PollVote{PostID: postID, UserID: viewer.ID, OptionIdx: optionIdx}
	if err := s.votes.Insert(ctx, vote); err != nil {
		return nil, err
	}
	return vote, nil
}

func voteOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, models.ErrDuplicateVote):
		return "duplicate"
	case errors.Is(err, models.ErrVotingClosed):
		return "closed"
	case errors.Is(err, models.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, models.ErrReferencedEntityMissing):
		return "missing"
	default:
		return "error"
	}
}
