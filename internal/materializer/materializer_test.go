package materializer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

type fakeResolver struct {
	profiles   map[string]models.UserView
	posts      map[string]*models.Post
	replies    map[string]int
	reposts    map[string]int
	likes      map[string]int
	views      map[string]int
	stats      map[string]map[string]models.PostStatsRow // viewer -> post -> row
	liked      map[string]map[string]bool
	bookmarked map[string]map[string]bool
	reposted   map[string]map[string]bool
	votes      map[string]map[string]int // post -> user -> option
	err        error
}

func (f *fakeResolver) Profiles(ctx context.Context, ids []string) (map[string]models.UserView, error) {
	return f.profiles, f.err
}

func (f *fakeResolver) PostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	out := make(map[string]*models.Post)
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeResolver) ReplyCounts(ctx context.Context, ids []string) (map[string]int, error) {
	return f.replies, nil
}

func (f *fakeResolver) RepostCounts(ctx context.Context, ids []string) (map[string]int, error) {
	return f.reposts, nil
}

func (f *fakeResolver) LikeCounts(ctx context.Context, ids []string) (map[string]int, error) {
	return f.likes, nil
}

func (f *fakeResolver) ViewCounts(ctx context.Context, ids []string) (map[string]int, error) {
	return f.views, nil
}

func (f *fakeResolver) ViewerStats(ctx context.Context, viewerID string, ids []string) (map[string]models.PostStatsRow, error) {
	return f.stats[viewerID], nil
}

func (f *fakeResolver) ViewerLiked(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	return f.liked[viewerID], nil
}

func (f *fakeResolver) ViewerBookmarked(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	return f.bookmarked[viewerID], nil
}

func (f *fakeResolver) ViewerReposted(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	return f.reposted[viewerID], nil
}

func (f *fakeResolver) VoteTallies(ctx context.Context, ids []string) (map[string]map[int]int, error) {
	out := make(map[string]map[int]int)
	for postID, byUser := range f.votes {
		out[postID] = make(map[int]int)
		for _, idx := range byUser {
			out[postID][idx]++
		}
	}
	return out, nil
}

func (f *fakeResolver) ViewerVotes(ctx context.Context, viewerID string, ids []string) (map[string]int, error) {
	out := make(map[string]int)
	for postID, byUser := range f.votes {
		if idx, ok := byUser[viewerID]; ok {
			out[postID] = idx
		}
	}
	return out, nil
}

var created = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func pollPost() *models.Post {
	return &models.Post{
		ID:        "poll",
		CreatorID: "creator",
		Text:      "A or B?",
		IsPublic:  true,
		Poll: &models.Poll{
			Options: []models.PollOption{{Text: "A"}, {Text: "B"}},
			Length:  models.PollLength{Days: 1},
		},
		CreatedAt: created,
	}
}

func newTestMaterializer(r RelationResolver, now time.Time) *Materializer {
	m := New(r)
	m.now = func() time.Time { return now }
	return m
}

func TestPollTalliesPerViewer(t *testing.T) {
	r := &fakeResolver{votes: map[string]map[string]int{
		"poll": {"u1": 0, "u2": 1, "u3": 1},
	}}
	m := newTestMaterializer(r, created.Add(time.Hour))

	got, err := m.MaterializeOne(context.Background(), pollPost(), models.Viewer{ID: "u1"})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	opts := got.Poll.Options
	if opts[0].VoteCount != 1 || opts[1].VoteCount != 2 {
		t.Fatalf("unexpected counts %+v", opts)
	}
	if !opts[0].IsLoggedInUserVoted || opts[1].IsLoggedInUserVoted {
		t.Fatalf("u1 voted for option 0 only: %+v", opts)
	}
	if !got.Poll.IsVotingOff {
		t.Fatalf("voting must be off after the viewer voted")
	}

	got, err = m.MaterializeOne(context.Background(), pollPost(), models.Viewer{ID: "u2"})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got.Poll.Options[0].IsLoggedInUserVoted || !got.Poll.Options[1].IsLoggedInUserVoted {
		t.Fatalf("u2 voted for option 1 only: %+v", got.Poll.Options)
	}
	if !got.Poll.IsVotingOff {
		t.Fatalf("voting must be off after the viewer voted")
	}
}

func TestIsVotingOff(t *testing.T) {
	tests := []struct {
		name   string
		viewer models.Viewer
		now    time.Time
		want   bool
	}{
		{"open window, fresh viewer", models.Viewer{ID: "u9"}, created.Add(time.Hour), false},
		{"anonymous", models.Viewer{}, created.Add(time.Hour), true},
		{"creator", models.Viewer{ID: "creator"}, created.Add(time.Hour), true},
		{"window elapsed", models.Viewer{ID: "u9"}, created.Add(25 * time.Hour), true},
		{"already voted", models.Viewer{ID: "u1"}, created.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{votes: map[string]map[string]int{"poll": {"u1": 1}}}
			got, err := newTestMaterializer(r, tt.now).MaterializeOne(context.Background(), pollPost(), tt.viewer)
			if err != nil {
				t.Fatalf("materialize: %v", err)
			}
			if got.Poll.IsVotingOff != tt.want {
				t.Fatalf("expected isVotingOff=%v, got %v", tt.want, got.Poll.IsVotingOff)
			}
		})
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	r := &fakeResolver{
		profiles: map[string]models.UserView{"creator": {ID: "creator", Username: "maker"}},
		likes:    map[string]int{"poll": 3},
		votes:    map[string]map[string]int{"poll": {"u1": 0}},
	}
	m := newTestMaterializer(r, created.Add(time.Hour))
	post := pollPost()
	viewer := models.Viewer{ID: "u1"}

	first, err := m.MaterializeOne(context.Background(), post, viewer)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	second, err := m.MaterializeOne(context.Background(), post, viewer)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("materializing twice differs:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(post, pollPost()) {
		t.Fatalf("input post was modified: %+v", post)
	}
}

func TestCountsAndActionState(t *testing.T) {
	post := &models.Post{ID: "p1", CreatorID: "creator", Text: "hi", IsPublic: true, CreatedAt: created}
	r := &fakeResolver{
		profiles: map[string]models.UserView{"creator": {ID: "creator", Username: "maker"}},
		replies:  map[string]int{"p1": 2},
		reposts:  map[string]int{"p1": 1},
		likes:    map[string]int{"p1": 5},
		views:    map[string]int{"p1": 7},
		stats: map[string]map[string]models.PostStatsRow{
			"u1": {"p1": {PostID: "p1", UserID: "u1", ActionFlags: models.ActionFlags{IsViewed: true, IsShared: true}}},
		},
		liked:      map[string]map[string]bool{"u1": {"p1": true}},
		bookmarked: map[string]map[string]bool{"u1": {"p1": true}},
	}
	m := newTestMaterializer(r, created)

	got, err := m.MaterializeOne(context.Background(), post, models.Viewer{ID: "u1"})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got.RepliesCount != 2 || got.RepostsCount != 1 || got.LikesCount != 5 || got.ViewsCount != 7 {
		t.Fatalf("unexpected counts %+v", got)
	}
	if got.CreatedBy == nil || got.CreatedBy.Username != "maker" {
		t.Fatalf("expected creator profile, got %+v", got.CreatedBy)
	}
	state := got.LoggedInUserActionState
	if !state.IsViewed || !state.IsShared || !state.IsLiked || !state.IsBookmarked || state.IsReposted {
		t.Fatalf("unexpected action state %+v", state)
	}

	anon, err := m.MaterializeOne(context.Background(), post, models.Viewer{})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if anon.LoggedInUserActionState != (models.ActionState{}) {
		t.Fatalf("anonymous viewer must get an all-false state, got %+v", anon.LoggedInUserActionState)
	}
}

func TestBookmarkStateComesFromBookmarkRows(t *testing.T) {
	post := &models.Post{ID: "p1", CreatorID: "creator", Text: "hi", IsPublic: true}
	r := &fakeResolver{
		stats: map[string]map[string]models.PostStatsRow{
			"u1": {"p1": {ActionFlags: models.ActionFlags{IsBookmarked: true}}},
		},
	}

	got, err := newTestMaterializer(r, created).MaterializeOne(context.Background(), post, models.Viewer{ID: "u1"})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got.LoggedInUserActionState.IsBookmarked {
		t.Fatalf("isBookmarked must reflect the bookmark rows, not a stale stats flag")
	}
}

func TestQuotedPostOneLevelDeep(t *testing.T) {
	inner := "inner"
	middle := "middle"
	missing := "missing"
	r := &fakeResolver{
		posts: map[string]*models.Post{
			"middle": {ID: "middle", CreatorID: "c2", Text: "quoting", QuotedPostID: &inner, IsPublic: true},
			"inner":  {ID: "inner", CreatorID: "c3", Text: "original", IsPublic: true},
		},
		likes: map[string]int{"middle": 4},
	}
	m := newTestMaterializer(r, created)

	posts := []*models.Post{
		{ID: "top", CreatorID: "c1", Text: "look", QuotedPostID: &middle, IsPublic: true},
		{ID: "dangling", CreatorID: "c1", Text: "gone", QuotedPostID: &missing, IsPublic: true},
	}
	got, err := m.Materialize(context.Background(), posts, models.Viewer{})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	q := got[0].QuotedPost
	if q == nil || q.ID != "middle" || q.LikesCount != 4 {
		t.Fatalf("expected decorated quoted post, got %+v", q)
	}
	if q.QuotedPost != nil {
		t.Fatalf("quoted posts are decorated one level deep only")
	}
	if got[1].QuotedPost != nil {
		t.Fatalf("missing quoted post should resolve to absent")
	}
}

func TestHiddenQuotedPost(t *testing.T) {
	hidden := "hidden"
	r := &fakeResolver{posts: map[string]*models.Post{
		"hidden": {ID: "hidden", CreatorID: "c2", Text: "draft", IsDraft: true},
	}}
	post := &models.Post{ID: "top", CreatorID: "c1", Text: "look", QuotedPostID: &hidden, IsPublic: true}
	m := newTestMaterializer(r, created)

	got, _ := m.MaterializeOne(context.Background(), post, models.Viewer{ID: "someone"})
	if got.QuotedPost != nil {
		t.Fatalf("hidden quoted post must not leak")
	}
	got, _ = m.MaterializeOne(context.Background(), post, models.Viewer{ID: "c2"})
	if got.QuotedPost == nil {
		t.Fatalf("creator should see their own quoted draft")
	}
}

func TestResolverErrorPropagates(t *testing.T) {
	r := &fakeResolver{err: errLookup}
	_, err := newTestMaterializer(r, created).Materialize(context.Background(),
		[]*models.Post{{ID: "p1", CreatorID: "c1", Text: "x"}}, models.Viewer{})
	if !errors.Is(err, errLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestMaterializeEmpty(t *testing.T) {
	got, err := New(&fakeResolver{}).Materialize(context.Background(), nil, models.Viewer{})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v %v", got, err)
	}
}

var errLookup = errors.New("lookup failed")
