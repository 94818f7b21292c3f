// internal/posts/pipeline.go
// Ordered steps run around the store's create, update, read and delete operations.

package posts

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
	"github.com/imadgeboyega/kiekky-feed/internal/users"
)

type writeStep struct {
	name string
	run  func(ctx context.Context, post *models.Post) error
}

// WritePipeline validates and normalizes a post before it is stored
type WritePipeline struct {
	users     users.Directory
	posts     PostChecker
	maxImages int
	now       func() time.Time
}

// PostChecker reports whether a post exists regardless of visibility
type PostChecker interface {
	Exists(ctx context.Context, postID string) (bool, error)
}

func NewWritePipeline(directory users.Directory, posts PostChecker, maxImages int) *WritePipeline {
	return &WritePipeline{users: directory, posts: posts, maxImages: maxImages, now: time.Now}
}

func (p *WritePipeline) createSteps() []writeStep {
	return []writeStep{
		{"defaults", p.applyDefaults},
		{"requireContent", requireContent},
		{"validateSchedule", p.validateSchedule},
		{"requirePollText", requirePollText},
		{"validatePoll", validatePoll},
		{"validateFields", validateFields},
		{"computeVisibility", computeVisibility},
		{"orderImages", p.orderImages},
		{"trimVideoURL", trimVideoURL},
		{"validateReferences", p.validateReferences},
	}
}

// Only text changes on update, so only the text-dependent steps run again
func (p *WritePipeline) updateSteps() []writeStep {
	return []writeStep{
		{"requireContent", requireContent},
		{"requirePollText", requirePollText},
		{"trimVideoURL", trimVideoURL},
	}
}

func (p *WritePipeline) RunCreate(ctx context.Context, post *models.Post) error {
	return runSteps(ctx, p.createSteps(), post)
}

func (p *WritePipeline) RunUpdate(ctx context.Context, post *models.Post) error {
	return runSteps(ctx, p.updateSteps(), post)
}

func runSteps(ctx context.Context, steps []writeStep, post *models.Post) error {
	for _, step := range steps {
		if err := step.run(ctx, post); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (p *WritePipeline) applyDefaults(ctx context.Context, post *models.Post) error {
	if post.Audience == "" {
		post.Audience = models.AudienceEveryone
	}
	if post.Repliers == "" {
		post.Repliers = models.RepliersEveryone
	}
	if post.Poll != nil && post.Poll.Length.IsZero() {
		post.Poll.Length = models.PollLength{Days: 1}
	}
	return nil
}

func requireContent(ctx context.Context, post *models.Post) error {
	if !post.HasContent() {
		return models.NewValidationError("post", "a post needs text, a gif, images, a poll or a video")
	}
	return nil
}

func (p *WritePipeline) validateSchedule(ctx context.Context, post *models.Post) error {
	if post.Schedule == nil {
		return nil
	}
	if post.Poll != nil {
		return models.NewValidationError("schedule", "a post with a poll cannot be scheduled")
	}
	if post.Schedule.Before(p.now()) {
		return models.NewValidationError("schedule", "schedule cannot be in the past")
	}
	return nil
}

func requirePollText(ctx context.Context, post *models.Post) error {
	if post.Poll != nil && strings.TrimSpace(post.Text) == "" {
		return models.NewValidationError("text", "a poll needs a question")
	}
	return nil
}

func validatePoll(ctx context.Context, post *models.Post) error {
	poll := post.Poll
	if poll == nil {
		return nil
	}

	if n := len(poll.Options); n < models.MinPollOptions || n > models.MaxPollOptions {
		return models.NewValidationError("poll.options",
			fmt.Sprintf("a poll needs between %d and %d options", models.MinPollOptions, models.MaxPollOptions))
	}
	for i := range poll.Options {
		poll.Options[i].Text = strings.TrimSpace(poll.Options[i].Text)
		if poll.Options[i].Text == "" {
			return models.NewValidationError(fmt.Sprintf("poll.options[%d]", i), "option text is required")
		}
		poll.Options[i].VoteCount = 0
		poll.Options[i].IsLoggedInUserVoted = false
	}
	poll.IsVotingOff = false

	length := poll.Length
	if length.Days < 0 || length.Hours < 0 || length.Minutes < 0 {
		return models.NewValidationError("poll.length", "poll length cannot be negative")
	}
	if d := length.Duration(); d <= 0 || d > models.MaxPollLength {
		return models.NewValidationError("poll.length", "poll length must be more than zero and at most 7 days")
	}
	return nil
}

type postFields struct {
	Audience   string `validate:"oneof=everyone circle"`
	Repliers   string `validate:"oneof=everyone followed mentioned"`
	VideoURL   string `validate:"omitempty,url"`
	LinkToSite string `validate:"omitempty,url"`
}

func validateFields(ctx context.Context, post *models.Post) error {
	return utils.ValidateStruct(postFields{
		Audience:   post.Audience,
		Repliers:   post.Repliers,
		VideoURL:   post.VideoURL,
		LinkToSite: post.LinkToSite,
	})
}

func computeVisibility(ctx context.Context, post *models.Post) error {
	post.IsPublic = post.Schedule == nil && !post.IsDraft
	return nil
}

func (p *WritePipeline) orderImages(ctx context.Context, post *models.Post) error {
	if p.maxImages > 0 && len(post.Images) > p.maxImages {
		return models.NewValidationError("images", fmt.Sprintf("at most %d images per post", p.maxImages))
	}
	for i := range post.Images {
		post.Images[i].SortOrder = i
	}
	return nil
}

func trimVideoURL(ctx context.Context, post *models.Post) error {
	post.Text = stripTrailingURL(post.Text, post.VideoURL)
	return nil
}

// stripTrailingURL removes url from the end of text, ignoring trailing whitespace
func stripTrailingURL(text, url string) string {
	if url == "" {
		return text
	}
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if !strings.HasSuffix(trimmed, url) {
		return text
	}
	return strings.TrimRightFunc(strings.TrimSuffix(trimmed, url), unicode.IsSpace)
}

func (p *WritePipeline) validateReferences(ctx context.Context, post *models.Post) error {
	ok, err := p.users.UsersExist(ctx, []string{post.CreatorID})
	if err != nil {
		return err
	}
	if !ok {
		return models.MissingReference("creator", post.CreatorID)
	}

	refs := []struct {
		name string
		id   *string
	}{
		{"quoted post", post.QuotedPostID},
		{"parent post", post.ParentPostID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		exists, err := p.posts.Exists(ctx, *ref.id)
		if err != nil {
			return err
		}
		if !exists {
			return models.MissingReference(ref.name, *ref.id)
		}
	}
	return nil
}

// ReadOptions lets internal callers opt out of the implicit read filters
type ReadOptions struct {
	Internal       bool
	IncludeBlocked bool
}

// ReadPipeline builds the visibility filter for a viewer
type ReadPipeline struct {
	users users.Directory
}

func NewReadPipeline(directory users.Directory) *ReadPipeline {
	return &ReadPipeline{users: directory}
}

func (p *ReadPipeline) Filter(ctx context.Context, viewer models.Viewer, opts ReadOptions) (ReadFilter, error) {
	filter := ReadFilter{Unrestricted: opts.Internal || viewer.IsAdmin}

	if opts.IncludeBlocked || viewer.IsAnonymous() {
		return filter, nil
	}
	blocked, err := p.users.BlockedCreatorIDs(ctx, viewer.ID)
	if err != nil {
		return ReadFilter{}, fmt.Errorf("blocked creators: %w", err)
	}
	filter.BlockedCreatorIDs = blocked
	return filter, nil
}

// Cascade purges the rows that reference a deleted post
type Cascade interface {
	OnPostDeleted(ctx context.Context, postID string) error
}

// DeletePipeline loads, authorizes, cascades and only then removes the post.
// A failed cascade leaves the post in place.
type DeletePipeline struct {
	repo    Repository
	cascade Cascade
}

func NewDeletePipeline(repo Repository, cascade Cascade) *DeletePipeline {
	return &DeletePipeline{repo: repo, cascade: cascade}
}

func (p *DeletePipeline) Run(ctx context.Context, viewer models.Viewer, postID string) (*models.Post, error) {
	post, err := p.repo.LoadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !viewer.Is(post.CreatorID) && !(viewer.IsAdmin && !viewer.IsAnonymous()) {
		return nil, models.ErrForbidden
	}

	if err := p.cascade.OnPostDeleted(ctx, post.ID); err != nil {
		return nil, err
	}

	if err := p.repo.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	return post, nil
}
