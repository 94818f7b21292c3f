package posts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

const (
	postA   = "6f1c1c1e-5b0a-4d5e-9a7c-0d2f4c1b2a01"
	postB   = "6f1c1c1e-5b0a-4d5e-9a7c-0d2f4c1b2a02"
	creator = "0b8e3c52-1f7d-4c19-8c0e-58f1a3e9d001"
)

var postColumnNames = []string{
	"id", "created_by", "text", "images", "video_url", "gif", "poll", "location", "schedule",
	"quoted_post_id", "parent_post_id", "audience", "repliers", "is_public", "is_draft", "is_pinned",
	"is_promotional", "company_name", "link_to_site", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return NewPostgresRepository(sqlx.NewDb(raw, "postgres")), mock
}

func postRows(ids ...string) *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(postColumnNames)
	for _, id := range ids {
		rows.AddRow(id, creator, "hello", []byte(`[{"url":"https://cdn/a.png","sortOrder":0}]`), "", "",
			[]byte(`{"options":[{"text":"a"},{"text":"b"}],"length":{"days":1,"hours":0,"minutes":0}}`), "",
			nil, nil, nil, "everyone", "everyone", true, false, false, false, "", "", now, now)
	}
	return rows
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO posts`).WillReturnResult(sqlmock.NewResult(0, 1))

	post := &models.Post{CreatorID: creator, Text: "hi"}
	if err := repo.Create(context.Background(), post); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !validID(post.ID) || post.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamps, got %+v", post)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM posts WHERE TRUE AND is_public AND id = \$1`).
		WithArgs(postA).
		WillReturnRows(postRows(postA))

	post, err := repo.GetByID(context.Background(), postA, ReadFilter{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if post.Poll == nil || len(post.Poll.Options) != 2 || post.Poll.Length.Days != 1 {
		t.Fatalf("poll not decoded: %+v", post.Poll)
	}
	if len(post.Images) != 1 || post.Images[0].URL != "https://cdn/a.png" {
		t.Fatalf("images not decoded: %+v", post.Images)
	}
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM posts`).WillReturnRows(sqlmock.NewRows(postColumnNames))

	if _, err := repo.GetByID(context.Background(), postA, ReadFilter{Unrestricted: true}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// malformed ids never reach the database
	if _, err := repo.GetByID(context.Background(), "not-a-uuid", ReadFilter{}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryFindQueryShape(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`(?s)NOT \(created_by = ANY\(\$1\)\) AND NOT is_promotional AND created_by = \$2 AND parent_post_id IS NULL.*ORDER BY is_pinned DESC, created_at DESC.*LIMIT \$3 OFFSET \$4`).
		WithArgs(sqlmock.AnyArg(), creator, 20, 40).
		WillReturnRows(postRows(postA, postB))

	posts, err := repo.Find(context.Background(), Query{
		ReadFilter: ReadFilter{BlockedCreatorIDs: []string{creator}},
		CreatorID:  creator,
		Limit:      20,
		Offset:     40,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
}

func TestRepositoryFindReplies(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`(?s)parent_post_id = \$1.*ORDER BY created_at ASC`).
		WithArgs(postA, 10, 0).
		WillReturnRows(postRows(postB))

	posts, err := repo.Find(context.Background(), Query{
		ReadFilter:   ReadFilter{Unrestricted: true},
		ParentPostID: postA,
		Ascending:    true,
		Limit:        10,
	})
	if err != nil || len(posts) != 1 {
		t.Fatalf("find replies: %v (%d posts)", err, len(posts))
	}
}

func TestRepositoryDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM posts`).WithArgs(postA).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), postA); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositorySetPinned(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE posts SET is_pinned = FALSE`).WithArgs(creator).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE posts SET is_pinned = \$2`).WithArgs(postA, true).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SetPinned(context.Background(), creator, postA, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryCountReplies(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT parent_post_id AS post_id`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "count"}).AddRow(postA, 3))

	counts, err := repo.CountReplies(context.Background(), []string{postA, postB, "junk"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[postA] != 3 || counts[postB] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestRepositoryPublishDue(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectExec(`(?s)UPDATE posts.*SET created_at = schedule.*schedule <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.PublishDue(context.Background(), now)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 published, got %d (%v)", n, err)
	}
}
