package posts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

type memRepo struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	seq   int
	clock time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{posts: make(map[string]*models.Post), clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func copyPost(p *models.Post) *models.Post {
	cp := *p
	cp.Images = append([]models.Image(nil), p.Images...)
	cp.Poll = p.Poll.Clone()
	return &cp
}

func (m *memRepo) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	post.ID = fmt.Sprintf("post-%02d", m.seq)
	post.CreatedAt = m.clock
	post.UpdatedAt = m.clock
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *memRepo) visible(p *models.Post, f ReadFilter) bool {
	if !f.Unrestricted && !p.IsPublic {
		return false
	}
	for _, id := range f.BlockedCreatorIDs {
		if id == p.CreatorID {
			return false
		}
	}
	return true
}

func (m *memRepo) GetByID(ctx context.Context, postID string, filter ReadFilter) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok || !m.visible(p, filter) {
		return nil, models.ErrNotFound
	}
	return copyPost(p), nil
}

func (m *memRepo) LoadPost(ctx context.Context, postID string) (*models.Post, error) {
	return m.GetByID(ctx, postID, ReadFilter{Unrestricted: true})
}

func (m *memRepo) GetByIDs(ctx context.Context, postIDs []string) (map[string]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*models.Post)
	for _, id := range postIDs {
		if p, ok := m.posts[id]; ok {
			out[id] = copyPost(p)
		}
	}
	return out, nil
}

func (m *memRepo) Exists(ctx context.Context, postID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.posts[postID]
	return ok, nil
}

func (m *memRepo) Find(ctx context.Context, q Query) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if p.IsPromotional || !m.visible(p, q.ReadFilter) {
			continue
		}
		if q.CreatorID != "" && p.CreatorID != q.CreatorID {
			continue
		}
		parent := ""
		if p.ParentPostID != nil {
			parent = *p.ParentPostID
		}
		if parent != q.ParentPostID {
			continue
		}
		out = append(out, copyPost(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if q.CreatorID != "" && out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		if q.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Offset >= len(out) {
		return []*models.Post{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memRepo) FindPromotional(ctx context.Context, filter ReadFilter) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if p.IsPromotional && m.visible(p, filter) {
			out = append(out, copyPost(p))
		}
	}
	return out, nil
}

func (m *memRepo) UpdateText(ctx context.Context, postID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return models.ErrNotFound
	}
	p.Text = text
	return nil
}

func (m *memRepo) Delete(ctx context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return models.ErrNotFound
	}
	delete(m.posts, postID)
	return nil
}

func (m *memRepo) CountReplies(ctx context.Context, postIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, p := range m.posts {
		if p.ParentPostID != nil {
			out[*p.ParentPostID]++
		}
	}
	return out, nil
}

func (m *memRepo) SetPinned(ctx context.Context, creatorID, postID string, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if pinned && p.CreatorID == creatorID {
			p.IsPinned = false
		}
	}
	m.posts[postID].IsPinned = pinned
	return nil
}

func (m *memRepo) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.posts {
		if p.Schedule != nil && !p.Schedule.After(now) {
			p.CreatedAt = *p.Schedule
			p.Schedule = nil
			p.IsPublic = !p.IsDraft
			n++
		}
	}
	return n, nil
}

func (m *memRepo) get(id string) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id]
}

type fakeDirectory struct {
	users     map[string]string // id -> username
	blocked   map[string][]string
	following map[string][]string
}

func (d *fakeDirectory) PublicProfiles(ctx context.Context, ids []string) (map[string]models.UserView, error) {
	out := make(map[string]models.UserView)
	for _, id := range ids {
		if name, ok := d.users[id]; ok {
			out[id] = models.UserView{ID: id, Username: name}
		}
	}
	return out, nil
}

func (d *fakeDirectory) UsersExist(ctx context.Context, ids []string) (bool, error) {
	for _, id := range ids {
		if _, ok := d.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (d *fakeDirectory) BlockedCreatorIDs(ctx context.Context, viewerID string) ([]string, error) {
	return d.blocked[viewerID], nil
}

func (d *fakeDirectory) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	for _, id := range d.following[followerID] {
		if id == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) IDsByUsernames(ctx context.Context, usernames []string) ([]string, error) {
	var out []string
	for id, name := range d.users {
		for _, u := range usernames {
			if strings.EqualFold(name, u) {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

type passthroughMaterializer struct{}

func (passthroughMaterializer) Materialize(ctx context.Context, posts []*models.Post, viewer models.Viewer) ([]*models.MaterializedPost, error) {
	out := make([]*models.MaterializedPost, len(posts))
	for i, p := range posts {
		out[i] = &models.MaterializedPost{Post: *p}
	}
	return out, nil
}

func (m passthroughMaterializer) MaterializeOne(ctx context.Context, post *models.Post, viewer models.Viewer) (*models.MaterializedPost, error) {
	out, err := m.Materialize(ctx, []*models.Post{post}, viewer)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

type recordingCascade struct {
	calls []string
	err   error
}

func (c *recordingCascade) OnPostDeleted(ctx context.Context, postID string) error {
	c.calls = append(c.calls, postID)
	return c.err
}

type fakeReposter struct {
	reposted map[string]bool
}

func (f *fakeReposter) ToggleRepost(ctx context.Context, viewer models.Viewer, postID string) (bool, error) {
	key := viewer.ID + "/" + postID
	f.reposted[key] = !f.reposted[key]
	return f.reposted[key], nil
}

type recordingMedia struct {
	deleted []string
}

func (m *recordingMedia) DeleteFile(fileURL string) error {
	m.deleted = append(m.deleted, fileURL)
	return nil
}
