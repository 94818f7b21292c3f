// internal/posts/service.go
package posts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/users"
)

// Materializer decorates stored posts for a viewer
type Materializer interface {
	Materialize(ctx context.Context, posts []*models.Post, viewer models.Viewer) ([]*models.MaterializedPost, error)
	MaterializeOne(ctx context.Context, post *models.Post, viewer models.Viewer) (*models.MaterializedPost, error)
}

// Reposter toggles the viewer's repost of a post
type Reposter interface {
	ToggleRepost(ctx context.Context, viewer models.Viewer, postID string) (bool, error)
}

// MediaRemover deletes uploaded files that belonged to a removed post
type MediaRemover interface {
	DeleteFile(fileURL string) error
}

type Service interface {
	CreatePost(ctx context.Context, viewer models.Viewer, req *CreatePostRequest) (*models.MaterializedPost, error)
	CreateThread(ctx context.Context, viewer models.Viewer, req *CreateThreadRequest) (*ThreadResult, error)
	CreateReply(ctx context.Context, viewer models.Viewer, parentID string, req *CreatePostRequest) (*models.MaterializedPost, error)
	CreateQuoteOrRepost(ctx context.Context, viewer models.Viewer, postID string, req *CreatePostRequest) (*QuoteOrRepostResult, error)
	UpdatePost(ctx context.Context, viewer models.Viewer, postID string, req *UpdatePostRequest) (*models.MaterializedPost, error)
	DeletePost(ctx context.Context, viewer models.Viewer, postID string) error
	GetPostByID(ctx context.Context, viewer models.Viewer, postID string) (*models.MaterializedPost, error)
	TogglePin(ctx context.Context, viewer models.Viewer, postID string) (bool, error)

	// Feed reads
	ReadFilter(ctx context.Context, viewer models.Viewer) (ReadFilter, error)
	FindPosts(ctx context.Context, q Query) ([]*models.Post, error)
	FindPromotional(ctx context.Context, filter ReadFilter) ([]*models.Post, error)
}

// Deps are the collaborators of the post service
type Deps struct {
	Repo           Repository
	Users          users.Directory
	Materializer   Materializer
	Cascade        Cascade
	Reposter       Reposter
	Media          MediaRemover
	MaxImages      int
	ThreadMaxPosts int
}

type service struct {
	repo           Repository
	users          users.Directory
	materializer   Materializer
	reposter       Reposter
	media          MediaRemover
	writes         *WritePipeline
	reads          *ReadPipeline
	deletes        *DeletePipeline
	threadMaxPosts int
}

func NewService(d Deps) Service {
	return &service{
		repo:           d.Repo,
		users:          d.Users,
		materializer:   d.Materializer,
		reposter:       d.Reposter,
		media:          d.Media,
		writes:         NewWritePipeline(d.Users, d.Repo, d.MaxImages),
		reads:          NewReadPipeline(d.Users),
		deletes:        NewDeletePipeline(d.Repo, d.Cascade),
		threadMaxPosts: d.ThreadMaxPosts,
	}
}

func (s *service) CreatePost(ctx context.Context, viewer models.Viewer, req *CreatePostRequest) (*models.MaterializedPost, error) {
	post, err := s.create(ctx, viewer, req, nil, nil)
	if err != nil {
		return nil, err
	}
	return s.materializer.MaterializeOne(ctx, post, viewer)
}

// create runs the write pipeline and stores the post
func (s *service) create(ctx context.Context, viewer models.Viewer, req *CreatePostRequest, parentID, quotedID *string) (*models.Post, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}
	if req.IsPromotional && !viewer.IsAdmin {
		return nil, fmt.Errorf("only admins can create promotional posts: %w", models.ErrForbidden)
	}

	post := req.toPost(viewer.ID)
	post.ParentPostID = parentID
	post.QuotedPostID = quotedID

	if err := s.writes.RunCreate(ctx, post); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	log.Printf("Post %s created by %s", post.ID, post.CreatorID)
	return post, nil
}

// CreateThread stores posts in order, each replying to the previous stored one.
// Items fail independently; failures are reported by index.
func (s *service) CreateThread(ctx context.Context, viewer models.Viewer, req *CreateThreadRequest) (*ThreadResult, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}
	if len(req.Posts) == 0 {
		return nil, models.NewValidationError("posts", "a thread needs at least one post")
	}
	if s.threadMaxPosts > 0 && len(req.Posts) > s.threadMaxPosts {
		return nil, models.NewValidationError("posts", fmt.Sprintf("a thread holds at most %d posts", s.threadMaxPosts))
	}

	var created []*models.Post
	result := &ThreadResult{}
	var previous *string

	for i := range req.Posts {
		post, err := s.create(ctx, viewer, &req.Posts[i], previous, nil)
		if err != nil {
			if !isClientError(err) {
				log.Printf("thread item %d failed: %v", i, err)
			}
			result.Errors = append(result.Errors, ThreadItemError{Index: i, Error: err.Error()})
			continue
		}
		id := post.ID
		previous = &id
		created = append(created, post)
	}

	materialized, err := s.materializer.Materialize(ctx, created, viewer)
	if err != nil {
		return nil, err
	}
	result.Posts = materialized
	return result, nil
}

func (s *service) CreateReply(ctx context.Context, viewer models.Viewer, parentID string, req *CreatePostRequest) (*models.MaterializedPost, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}

	filter, err := s.reads.Filter(ctx, viewer, ReadOptions{})
	if err != nil {
		return nil, err
	}
	parent, err := s.repo.GetByID(ctx, parentID, filter)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.MissingReference("parent post", parentID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.checkRepliers(ctx, viewer, parent); err != nil {
		return nil, err
	}

	post, err := s.create(ctx, viewer, req, &parent.ID, nil)
	if err != nil {
		return nil, err
	}
	return s.materializer.MaterializeOne(ctx, post, viewer)
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)

// checkRepliers enforces the parent's repliers policy. The parent's creator may always reply.
func (s *service) checkRepliers(ctx context.Context, viewer models.Viewer, parent *models.Post) error {
	if viewer.Is(parent.CreatorID) {
		return nil
	}

	switch parent.Repliers {
	case models.RepliersFollowed:
		ok, err := s.users.IsFollowing(ctx, parent.CreatorID, viewer.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("only people followed by the author can reply: %w", models.ErrForbidden)
		}
	case models.RepliersMentioned:
		var names []string
		for _, m := range mentionPattern.FindAllStringSubmatch(parent.Text, -1) {
			names = append(names, strings.ToLower(m[1]))
		}
		ids, err := s.users.IDsByUsernames(ctx, names)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id == viewer.ID {
				return nil
			}
		}
		return fmt.Errorf("only people mentioned by the author can reply: %w", models.ErrForbidden)
	}
	return nil
}

// CreateQuoteOrRepost quotes the post when the request carries content, otherwise toggles a repost
func (s *service) CreateQuoteOrRepost(ctx context.Context, viewer models.Viewer, postID string, req *CreatePostRequest) (*QuoteOrRepostResult, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}

	if req == nil || !req.toPost(viewer.ID).HasContent() {
		reposted, err := s.reposter.ToggleRepost(ctx, viewer, postID)
		if err != nil {
			return nil, err
		}
		return &QuoteOrRepostResult{Reposted: &reposted}, nil
	}

	post, err := s.create(ctx, viewer, req, nil, &postID)
	if err != nil {
		return nil, err
	}
	materialized, err := s.materializer.MaterializeOne(ctx, post, viewer)
	if err != nil {
		return nil, err
	}
	return &QuoteOrRepostResult{Post: materialized}, nil
}

func (s *service) UpdatePost(ctx context.Context, viewer models.Viewer, postID string, req *UpdatePostRequest) (*models.MaterializedPost, error) {
	post, err := s.repo.LoadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !viewer.Is(post.CreatorID) {
		return nil, models.ErrForbidden
	}

	post.Text = req.Text
	if err := s.writes.RunUpdate(ctx, post); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateText(ctx, post.ID, post.Text); err != nil {
		return nil, err
	}

	return s.materializer.MaterializeOne(ctx, post, viewer)
}

func (s *service) DeletePost(ctx context.Context, viewer models.Viewer, postID string) error {
	post, err := s.deletes.Run(ctx, viewer, postID)
	if err != nil {
		return err
	}

	if s.media != nil {
		for _, img := range post.Images {
			if err := s.media.DeleteFile(img.URL); err != nil {
				log.Printf("failed to remove image %s of post %s: %v", img.URL, post.ID, err)
			}
		}
	}

	log.Printf("Post %s deleted by %s", post.ID, viewer.ID)
	return nil
}

func (s *service) GetPostByID(ctx context.Context, viewer models.Viewer, postID string) (*models.MaterializedPost, error) {
	filter, err := s.reads.Filter(ctx, viewer, ReadOptions{})
	if err != nil {
		return nil, err
	}
	post, err := s.repo.GetByID(ctx, postID, filter)
	if err != nil {
		return nil, err
	}
	return s.materializer.MaterializeOne(ctx, post, viewer)
}

// TogglePin pins the post, unpinning any other post of the creator, or unpins it
func (s *service) TogglePin(ctx context.Context, viewer models.Viewer, postID string) (bool, error) {
	post, err := s.repo.LoadPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if !viewer.Is(post.CreatorID) {
		return false, models.ErrForbidden
	}

	pinned := !post.IsPinned
	if err := s.repo.SetPinned(ctx, post.CreatorID, post.ID, pinned); err != nil {
		return false, err
	}
	return pinned, nil
}

func (s *service) ReadFilter(ctx context.Context, viewer models.Viewer) (ReadFilter, error) {
	return s.reads.Filter(ctx, viewer, ReadOptions{})
}

func (s *service) FindPosts(ctx context.Context, q Query) ([]*models.Post, error) {
	return s.repo.Find(ctx, q)
}

func (s *service) FindPromotional(ctx context.Context, filter ReadFilter) ([]*models.Post, error) {
	return s.repo.FindPromotional(ctx, filter)
}

func isClientError(err error) bool {
	for _, target := range []error{
		models.ErrValidation, models.ErrReferencedEntityMissing, models.ErrForbidden, models.ErrUnauthenticated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
