// internal/users/repository.go
// Read-only access to the account service's tables: public profiles,
// block lists and follow edges used by the feed

package users

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

// Directory is the relation filter and profile lookup consumed by the feed
type Directory interface {
	PublicProfiles(ctx context.Context, userIDs []string) (map[string]models.UserView, error)
	UsersExist(ctx context.Context, userIDs []string) (bool, error)
	BlockedCreatorIDs(ctx context.Context, viewerID string) ([]string, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	IDsByUsernames(ctx context.Context, usernames []string) ([]string, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a Directory backed by PostgreSQL
func NewPostgresRepository(db *sqlx.DB) Directory {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) PublicProfiles(ctx context.Context, userIDs []string) (map[string]models.UserView, error) {
	profiles := make(map[string]models.UserView, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	query := `
		SELECT id, username, display_name, profile_picture
		FROM users
		WHERE id = ANY($1)`

	var rows []models.UserView
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	for _, u := range rows {
		profiles[u.ID] = u
	}
	return profiles, nil
}

// UsersExist reports whether every given id belongs to an existing user
func (r *postgresRepository) UsersExist(ctx context.Context, userIDs []string) (bool, error) {
	unique := dedupe(userIDs)
	if len(unique) == 0 {
		return true, nil
	}

	var count int
	query := `SELECT COUNT(*) FROM users WHERE id = ANY($1)`
	if err := r.db.GetContext(ctx, &count, query, pq.Array(unique)); err != nil {
		return false, fmt.Errorf("failed to check users: %w", err)
	}
	return count == len(unique), nil
}

func (r *postgresRepository) BlockedCreatorIDs(ctx context.Context, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, nil
	}

	var ids []string
	query := `SELECT blocked_id FROM user_blocks WHERE blocker_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, viewerID); err != nil {
		return nil, fmt.Errorf("failed to load blocked users: %w", err)
	}
	return ids, nil
}

func (r *postgresRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM user_follows WHERE follower_id = $1 AND following_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, followerID, followingID)
	return exists, err
}

func (r *postgresRepository) IDsByUsernames(ctx context.Context, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	var ids []string
	query := `SELECT id FROM users WHERE LOWER(username) = ANY($1)`
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(usernames)); err != nil {
		return nil, fmt.Errorf("failed to resolve mentions: %w", err)
	}
	return ids, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
