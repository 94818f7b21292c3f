// internal/engagement/repository.go
// Like, bookmark and repost pair tables plus the per-viewer post_stats rows

package engagement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

// Kind selects one of the (post, user) pair tables
type Kind string

const (
	KindLike     Kind = "like"
	KindBookmark Kind = "bookmark"
	KindRepost   Kind = "repost"
)

var pairTables = map[Kind]string{
	KindLike:     "post_likes",
	KindBookmark: "post_bookmarks",
	KindRepost:   "post_reposts",
}

// PairStore is one (post, user) engagement collection
type PairStore interface {
	Toggle(ctx context.Context, postID, userID string) (bool, error)
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)
	ViewerHas(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// StatsStore holds one row of event flags per (post, user)
type StatsStore interface {
	SetFlag(ctx context.Context, postID, userID string, flag models.StatFlag, value bool) error
	AggregateFlags(ctx context.Context, postID string) (models.FlagSums, error)
	ViewerRows(ctx context.Context, userID string, postIDs []string) (map[string]models.PostStatsRow, error)
	CountViewed(ctx context.Context, postIDs []string) (map[string]int, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// RepostQuery selects reposts of visible posts for the feed
type RepostQuery struct {
	ExcludeCreatorIDs []string
	UserID            string
	Unrestricted      bool
	Limit             int
	Offset            int
}

// RepostLister projects repost rows to their post and reposting user
type RepostLister interface {
	ListReposts(ctx context.Context, q RepostQuery) ([]models.RepostView, error)
}

type pairRepository struct {
	db    *sqlx.DB
	table string
}

// NewPairRepository creates the PostgreSQL store for one engagement kind
func NewPairRepository(db *sqlx.DB, kind Kind) PairStore {
	table, ok := pairTables[kind]
	if !ok {
		panic(fmt.Sprintf("unknown engagement kind %q", kind))
	}
	return &pairRepository{db: db, table: table}
}

// Toggle removes the pair if present, otherwise inserts it. Returns the new state.
func (r *pairRepository) Toggle(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1 AND user_id = $2`, r.table),
		postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove from %s: %w", r.table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, post_id, user_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (post_id, user_id) DO NOTHING`, r.table)

	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), postID, userID); err != nil {
		return false, fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}
	return true, nil
}

func (r *pairRepository) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT post_id, COUNT(*) AS count
		FROM %s
		WHERE post_id = ANY($1)
		GROUP BY post_id`, r.table)
	return countGrouped(ctx, r.db, query, postIDs)
}

func (r *pairRepository) ViewerHas(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	has := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return has, nil
	}

	var ids []string
	query := fmt.Sprintf(`SELECT post_id FROM %s WHERE user_id = $1 AND post_id = ANY($2)`, r.table)
	if err := r.db.SelectContext(ctx, &ids, query, userID, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.table, err)
	}
	for _, id := range ids {
		has[id] = true
	}
	return has, nil
}

func (r *pairRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1`, r.table), postID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", r.table, err)
	}
	return res.RowsAffected()
}

// ListReposts returns reposts newest first, joined with the reposted post and the reposter.
// Reposts of hidden posts and of blocked creators are skipped.
func (r *pairRepository) ListReposts(ctx context.Context, q RepostQuery) ([]models.RepostView, error) {
	query := `
		SELECT r.id, r.post_id, r.user_id, r.created_at,
		       p.id AS "post.id", p.created_by AS "post.created_by", p.text AS "post.text",
		       p.images AS "post.images", p.video_url AS "post.video_url", p.gif AS "post.gif",
		       p.poll AS "post.poll", p.location AS "post.location", p.schedule AS "post.schedule",
		       p.quoted_post_id AS "post.quoted_post_id", p.parent_post_id AS "post.parent_post_id",
		       p.audience AS "post.audience", p.repliers AS "post.repliers",
		       p.is_public AS "post.is_public", p.is_draft AS "post.is_draft", p.is_pinned AS "post.is_pinned",
		       p.is_promotional AS "post.is_promotional", p.company_name AS "post.company_name",
		       p.link_to_site AS "post.link_to_site",
		       p.created_at AS "post.created_at", p.updated_at AS "post.updated_at",
		       u.id AS "user.id", u.username AS "user.username",
		       u.display_name AS "user.display_name", u.profile_picture AS "user.profile_picture"
		FROM post_reposts r
		JOIN posts p ON p.id = r.post_id
		JOIN users u ON u.id = r.user_id
		WHERE ($1 OR p.is_public)
		  AND NOT (p.created_by = ANY($2))
		  AND ($3 = '' OR r.user_id::text = $3)
		ORDER BY r.created_at DESC
		LIMIT $4 OFFSET $5`

	exclude := q.ExcludeCreatorIDs
	if exclude == nil {
		exclude = []string{}
	}

	var rows []repostRow
	err := r.db.SelectContext(ctx, &rows, query,
		q.Unrestricted, pq.Array(exclude), q.UserID, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reposts: %w", err)
	}

	views := make([]models.RepostView, 0, len(rows))
	for _, row := range rows {
		post, err := row.Post.ToPost()
		if err != nil {
			return nil, err
		}
		user := row.User
		views = append(views, models.RepostView{
			Engagement: row.Engagement,
			Post:       post,
			RepostedBy: &user,
		})
	}
	return views, nil
}

type repostRow struct {
	models.Engagement
	Post models.PostRow  `db:"post"`
	User models.UserView `db:"user"`
}

type statsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates the PostgreSQL post_stats store
func NewStatsRepository(db *sqlx.DB) StatsStore {
	return &statsRepository{db: db}
}

// SetFlag upserts the viewer's row with one flag set to value
func (r *statsRepository) SetFlag(ctx context.Context, postID, userID string, flag models.StatFlag, value bool) error {
	if !flag.Valid() {
		return models.NewValidationError("flag", fmt.Sprintf("unknown stats flag %q", flag))
	}

	col := string(flag)
	query := fmt.Sprintf(`
		INSERT INTO post_stats (post_id, user_id, %[1]s, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (post_id, user_id)
		DO UPDATE SET %[1]s = EXCLUDED.%[1]s, updated_at = NOW()`, col)

	if _, err := r.db.ExecContext(ctx, query, postID, userID, value); err != nil {
		return fmt.Errorf("failed to record %s: %w", col, err)
	}
	return nil
}

func (r *statsRepository) AggregateFlags(ctx context.Context, postID string) (models.FlagSums, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE is_viewed) AS views_count,
			COUNT(*) FILTER (WHERE is_detail_viewed) AS details_views_count,
			COUNT(*) FILTER (WHERE is_profile_viewed) AS profile_views_count,
			COUNT(*) FILTER (WHERE is_followed_from_post) AS follows_count,
			COUNT(*) FILTER (WHERE is_blocked_from_post) AS blocks_count,
			COUNT(*) FILTER (WHERE is_muted_from_post) AS mutes_count,
			COUNT(*) FILTER (WHERE is_hashtag_clicked) AS hashtag_clicks_count,
			COUNT(*) FILTER (WHERE is_link_clicked) AS link_clicks_count,
			COUNT(*) FILTER (WHERE is_link_copied) AS link_copies_count,
			COUNT(*) FILTER (WHERE is_shared) AS shares_count,
			COUNT(*) FILTER (WHERE is_sent_in_message) AS sent_in_messages_count,
			COUNT(*) FILTER (WHERE is_bookmarked) AS bookmarks_count
		FROM post_stats
		WHERE post_id = $1`

	var sums models.FlagSums
	if err := r.db.GetContext(ctx, &sums, query, postID); err != nil {
		return models.FlagSums{}, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return sums, nil
}

func (r *statsRepository) ViewerRows(ctx context.Context, userID string, postIDs []string) (map[string]models.PostStatsRow, error) {
	out := make(map[string]models.PostStatsRow)
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT post_id, user_id, is_viewed, is_detail_viewed, is_profile_viewed,
		       is_followed_from_post, is_blocked_from_post, is_muted_from_post,
		       is_hashtag_clicked, is_link_clicked, is_link_copied, is_shared,
		       is_sent_in_message, is_bookmarked
		FROM post_stats
		WHERE user_id = $1 AND post_id = ANY($2)`

	var rows []models.PostStatsRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to read viewer stats: %w", err)
	}
	for _, row := range rows {
		out[row.PostID] = row
	}
	return out, nil
}

func (r *statsRepository) CountViewed(ctx context.Context, postIDs []string) (map[string]int, error) {
	query := `
		SELECT post_id, COUNT(*) AS count
		FROM post_stats
		WHERE post_id = ANY($1) AND is_viewed
		GROUP BY post_id`
	return countGrouped(ctx, r.db, query, postIDs)
}

func (r *statsRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM post_stats WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge post_stats: %w", err)
	}
	return res.RowsAffected()
}

type groupCount struct {
	PostID string `db:"post_id"`
	Count  int    `db:"count"`
}

func countGrouped(ctx context.Context, db *sqlx.DB, query string, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []groupCount
	if err := db.SelectContext(ctx, &rows, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to count: %w", err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}
