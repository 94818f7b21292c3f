// internal/posts/repository.go
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID string, filter ReadFilter) (*models.Post, error)
	LoadPost(ctx context.Context, postID string) (*models.Post, error)
	GetByIDs(ctx context.Context, postIDs []string) (map[string]*models.Post, error)
	Exists(ctx context.Context, postID string) (bool, error)
	Find(ctx context.Context, q Query) ([]*models.Post, error)
	FindPromotional(ctx context.Context, filter ReadFilter) ([]*models.Post, error)
	UpdateText(ctx context.Context, postID, text string) error
	Delete(ctx context.Context, postID string) error
	CountReplies(ctx context.Context, postIDs []string) (map[string]int, error)
	SetPinned(ctx context.Context, creatorID, postID string, pinned bool) error
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now

	row, err := models.NewPostRow(post)
	if err != nil {
		return fmt.Errorf("failed to encode post: %w", err)
	}

	query := `
		INSERT INTO posts (
			id, created_by, text, images, video_url, gif, poll, location, schedule,
			quoted_post_id, parent_post_id, audience, repliers, is_public, is_draft, is_pinned,
			is_promotional, company_name, link_to_site, created_at, updated_at
		) VALUES (
			:id, :created_by, :text, :images, :video_url, :gif, :poll, :location, :schedule,
			:quoted_post_id, :parent_post_id, :audience, :repliers, :is_public, :is_draft, :is_pinned,
			:is_promotional, :company_name, :link_to_site, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, postID string, filter ReadFilter) (*models.Post, error) {
	if !validID(postID) {
		return nil, models.ErrNotFound
	}

	conds, args := visibilityConditions(filter, 1)
	conds = append(conds, fmt.Sprintf("id = $%d", len(args)+1))
	args = append(args, postID)

	query := fmt.Sprintf(`SELECT %s FROM posts WHERE %s`, models.PostColumns, strings.Join(conds, " AND "))
	return r.getOne(ctx, query, args...)
}

// LoadPost reads a post with no visibility filter
func (r *postgresRepository) LoadPost(ctx context.Context, postID string) (*models.Post, error) {
	return r.GetByID(ctx, postID, ReadFilter{Unrestricted: true})
}

func (r *postgresRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Post, error) {
	var row models.PostRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return row.ToPost()
}

func (r *postgresRepository) GetByIDs(ctx context.Context, postIDs []string) (map[string]*models.Post, error) {
	out := make(map[string]*models.Post, len(postIDs))
	ids := validIDs(postIDs)
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM posts WHERE id = ANY($1)`, models.PostColumns)
	posts, err := r.selectPosts(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

func (r *postgresRepository) Exists(ctx context.Context, postID string) (bool, error) {
	if !validID(postID) {
		return false, nil
	}
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
	if err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return exists, nil
}

// Find returns one page of organic posts. Without a parent only top-level posts are listed.
// A creator filter puts that creator's pinned post first.
func (r *postgresRepository) Find(ctx context.Context, q Query) ([]*models.Post, error) {
	conds, args := visibilityConditions(q.ReadFilter, 1)
	conds = append(conds, "NOT is_promotional")

	if q.CreatorID != "" {
		if !validID(q.CreatorID) {
			return []*models.Post{}, nil
		}
		args = append(args, q.CreatorID)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}

	if q.ParentPostID != "" {
		if !validID(q.ParentPostID) {
			return []*models.Post{}, nil
		}
		args = append(args, q.ParentPostID)
		conds = append(conds, fmt.Sprintf("parent_post_id = $%d", len(args)))
	} else {
		conds = append(conds, "parent_post_id IS NULL")
	}

	order := "created_at DESC"
	if q.Ascending {
		order = "created_at ASC"
	}
	if q.CreatorID != "" {
		order = "is_pinned DESC, " + order
	}

	args = append(args, q.Limit, q.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM posts
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		models.PostColumns, strings.Join(conds, " AND "), order, len(args)-1, len(args))

	return r.selectPosts(ctx, query, args...)
}

func (r *postgresRepository) FindPromotional(ctx context.Context, filter ReadFilter) ([]*models.Post, error) {
	conds, args := visibilityConditions(filter, 1)
	conds = append(conds, "is_promotional")

	query := fmt.Sprintf(`SELECT %s FROM posts WHERE %s`, models.PostColumns, strings.Join(conds, " AND "))
	return r.selectPosts(ctx, query, args...)
}

func (r *postgresRepository) UpdateText(ctx context.Context, postID, text string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET text = $2, updated_at = NOW() WHERE id = $1`, postID, text)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, postID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) CountReplies(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	ids := validIDs(postIDs)
	if len(ids) == 0 {
		return counts, nil
	}

	query := `
		SELECT parent_post_id AS post_id, COUNT(*) AS count
		FROM posts
		WHERE parent_post_id = ANY($1)
		GROUP BY parent_post_id`

	var rows []struct {
		PostID string `db:"post_id"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

// SetPinned keeps at most one pinned post per creator
func (r *postgresRepository) SetPinned(ctx context.Context, creatorID, postID string, pinned bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if pinned {
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET is_pinned = FALSE, updated_at = NOW() WHERE created_by = $1 AND is_pinned`, creatorID)
		if err != nil {
			return fmt.Errorf("failed to unpin posts: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET is_pinned = $2, updated_at = NOW() WHERE id = $1`, postID, pinned)
	if err != nil {
		return fmt.Errorf("failed to pin post: %w", err)
	}

	return tx.Commit()
}

// PublishDue releases scheduled posts whose time has come. Publication time becomes
// the creation time so the post lands at the top of the feed.
func (r *postgresRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE posts
		SET created_at = schedule,
		    schedule = NULL,
		    is_public = NOT is_draft,
		    updated_at = NOW()
		WHERE schedule IS NOT NULL AND schedule <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to publish scheduled posts: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresRepository) selectPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	var rows []models.PostRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	posts := make([]*models.Post, 0, len(rows))
	for _, row := range rows {
		p, err := row.ToPost()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// visibilityConditions renders a ReadFilter as SQL, numbering placeholders from first
func visibilityConditions(filter ReadFilter, first int) ([]string, []interface{}) {
	conds := []string{"TRUE"}
	var args []interface{}

	if !filter.Unrestricted {
		conds = append(conds, "is_public")
	}
	if blocked := validIDs(filter.BlockedCreatorIDs); len(blocked) > 0 {
		conds = append(conds, fmt.Sprintf("NOT (created_by = ANY($%d))", first+len(args)))
		args = append(args, pq.Array(blocked))
	}
	return conds, args
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}
