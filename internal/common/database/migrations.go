// internal/common/database/migrations.go
// Schema for the feed collections. Every statement is idempotent.

package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	// users, user_blocks and user_follows are owned by the account service;
	// created here so a fresh database can serve reads
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(100) UNIQUE NOT NULL,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		profile_picture TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_blocks (
		blocker_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		blocked_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (blocker_id, blocked_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_follows (
		follower_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		following_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (follower_id, following_id)
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		created_by UUID NOT NULL REFERENCES users(id),
		text TEXT NOT NULL DEFAULT '',
		images JSONB,
		video_url TEXT NOT NULL DEFAULT '',
		gif TEXT NOT NULL DEFAULT '',
		poll JSONB,
		location VARCHAR(255) NOT NULL DEFAULT '',
		schedule TIMESTAMPTZ,
		quoted_post_id UUID,
		parent_post_id UUID,
		audience VARCHAR(20) NOT NULL DEFAULT 'everyone',
		repliers VARCHAR(20) NOT NULL DEFAULT 'everyone',
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		is_draft BOOLEAN NOT NULL DEFAULT FALSE,
		is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
		is_promotional BOOLEAN NOT NULL DEFAULT FALSE,
		company_name VARCHAR(255) NOT NULL DEFAULT '',
		link_to_site TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS post_likes (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS post_bookmarks (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS post_reposts (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS post_stats (
		post_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		is_viewed BOOLEAN NOT NULL DEFAULT FALSE,
		is_detail_viewed BOOLEAN NOT NULL DEFAULT FALSE,
		is_profile_viewed BOOLEAN NOT NULL DEFAULT FALSE,
		is_followed_from_post BOOLEAN NOT NULL DEFAULT FALSE,
		is_blocked_from_post BOOLEAN NOT NULL DEFAULT FALSE,
		is_muted_from_post BOOLEAN NOT NULL DEFAULT FALSE,
		is_hashtag_clicked BOOLEAN NOT NULL DEFAULT FALSE,
		is_link_clicked BOOLEAN NOT NULL DEFAULT FALSE,
		is_link_copied BOOLEAN NOT NULL DEFAULT FALSE,
		is_shared BOOLEAN NOT NULL DEFAULT FALSE,
		is_sent_in_message BOOLEAN NOT NULL DEFAULT FALSE,
		is_bookmarked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS poll_votes (
		post_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		option_idx INTEGER NOT NULL CHECK (option_idx >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (post_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_posts_created_by ON posts(created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_parent_post_id ON posts(parent_post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_schedule ON posts(schedule) WHERE schedule IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_posts_promotional ON posts(is_promotional) WHERE is_promotional`,
	`CREATE INDEX IF NOT EXISTS idx_post_likes_post_id ON post_likes(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_post_bookmarks_post_id ON post_bookmarks(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_post_reposts_post_id ON post_reposts(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_post_reposts_created_at ON post_reposts(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_votes_post_id ON poll_votes(post_id)`,
}

// RunMigrations creates every table and index the feed needs
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	log.Printf("Applied %d migration statements", len(migrations))
	return nil
}
