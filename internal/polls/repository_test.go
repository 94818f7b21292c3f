package polls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

func newMockRepo(t *testing.T) (VoteStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return NewPostgresRepository(sqlx.NewDb(raw, "postgres")), mock
}

func TestInsertVote(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO poll_votes`).
		WithArgs("p1", "u1", 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	vote := &models.PollVote{PostID: "p1", UserID: "u1", OptionIdx: 0}
	if err := repo.Insert(context.Background(), vote); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !vote.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at to be filled")
	}
}

func TestInsertVoteConstraintErrors(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		want error
	}{
		{"unique violation", uniqueViolation, models.ErrDuplicateVote},
		{"unknown user", foreignKeyViolation, models.ErrReferencedEntityMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`INSERT INTO poll_votes`).WillReturnError(&pq.Error{Code: tt.code})

			err := repo.Insert(context.Background(), &models.PollVote{PostID: "p1", UserID: "u1"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTallies(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT post_id, option_idx, COUNT\(\*\) AS count`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "option_idx", "count"}).
			AddRow("p1", 0, 1).
			AddRow("p1", 1, 2))

	tallies, err := repo.Tallies(context.Background(), []string{"p1"})
	if err != nil {
		t.Fatalf("tallies: %v", err)
	}
	if tallies["p1"][0] != 1 || tallies["p1"][1] != 2 {
		t.Fatalf("unexpected tallies %v", tallies)
	}
}
