// internal/polls/repository.go
package polls

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// VoteStore persists poll votes. One row per (post, user) is enforced by the primary key.
type VoteStore interface {
	Insert(ctx context.Context, vote *models.PollVote) error
	Tallies(ctx context.Context, postIDs []string) (map[string]map[int]int, error)
	ViewerVotes(ctx context.Context, userID string, postIDs []string) (map[string]int, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) VoteStore {
	return &postgresRepository{db: db}
}

// Insert relies on the primary key to reject a second vote, so concurrent
// double votes resolve in the database rather than through a pre-check.
func (r *postgresRepository) Insert(ctx context.Context, vote *models.PollVote) error {
	query := `
		INSERT INTO poll_votes (post_id, user_id, option_idx, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query, vote.PostID, vote.UserID, vote.OptionIdx).Scan(&vote.CreatedAt)
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return models.ErrDuplicateVote
		case foreignKeyViolation:
			return models.MissingReference("user", vote.UserID)
		}
	}
	return fmt.Errorf("failed to record vote: %w", err)
}

func (r *postgresRepository) Tallies(ctx context.Context, postIDs []string) (map[string]map[int]int, error) {
	tallies := make(map[string]map[int]int, len(postIDs))
	if len(postIDs) == 0 {
		return tallies, nil
	}

	query := `
		SELECT post_id, option_idx, COUNT(*) AS count
		FROM poll_votes
		WHERE post_id = ANY($1)
		GROUP BY post_id, option_idx`

	var rows []struct {
		PostID    string `db:"post_id"`
		OptionIdx int    `db:"option_idx"`
		Count     int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}

	for _, row := range rows {
		if tallies[row.PostID] == nil {
			tallies[row.PostID] = make(map[int]int)
		}
		tallies[row.PostID][row.OptionIdx] = row.Count
	}
	return tallies, nil
}

// ViewerVotes maps post id to the option the viewer picked
func (r *postgresRepository) ViewerVotes(ctx context.Context, userID string, postIDs []string) (map[string]int, error) {
	votes := make(map[string]int)
	if userID == "" || len(postIDs) == 0 {
		return votes, nil
	}

	var rows []models.PollVote
	query := `
		SELECT post_id, user_id, option_idx, created_at
		FROM poll_votes
		WHERE user_id = $1 AND post_id = ANY($2)`
	if err := r.db.SelectContext(ctx, &rows, query, userID, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to read viewer votes: %w", err)
	}

	for _, v := range rows {
		votes[v.PostID] = v.OptionIdx
	}
	return votes, nil
}

func (r *postgresRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM poll_votes WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge poll votes: %w", err)
	}
	return res.RowsAffected()
}
