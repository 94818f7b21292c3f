// internal/materializer/materializer.go
// Decorates stored posts with counts, the creator profile, the quoted post,
// poll tallies and the viewer's own action state. Read only.

package materializer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/metrics"
)

type Materializer struct {
	resolver RelationResolver
	now      func() time.Time
}

func New(resolver RelationResolver) *Materializer {
	return &Materializer{resolver: resolver, now: time.Now}
}

// relations holds the result of every lookup for one batch
type relations struct {
	profiles   map[string]models.UserView
	replies    map[string]int
	reposts    map[string]int
	likes      map[string]int
	views      map[string]int
	stats      map[string]models.PostStatsRow
	liked      map[string]bool
	bookmarked map[string]bool
	reposted   map[string]bool
	tallies    map[string]map[int]int
	votes      map[string]int
}

func (m *Materializer) MaterializeOne(ctx context.Context, post *models.Post, viewer models.Viewer) (*models.MaterializedPost, error) {
	out, err := m.Materialize(ctx, []*models.Post{post}, viewer)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Materialize returns one decorated post per input, in input order. Inputs are not modified.
func (m *Materializer) Materialize(ctx context.Context, posts []*models.Post, viewer models.Viewer) ([]*models.MaterializedPost, error) {
	start := time.Now()
	defer func() { metrics.RecordMaterialize(len(posts), time.Since(start)) }()

	if len(posts) == 0 {
		return []*models.MaterializedPost{}, nil
	}

	quoted, err := m.quotedPosts(ctx, posts, viewer)
	if err != nil {
		return nil, err
	}

	all := make([]*models.Post, 0, len(posts)+len(quoted))
	all = append(all, posts...)
	for _, q := range quoted {
		all = append(all, q)
	}

	rel, err := m.resolve(ctx, all, viewer)
	if err != nil {
		return nil, err
	}

	now := m.now()
	out := make([]*models.MaterializedPost, len(posts))
	for i, p := range posts {
		mp := decorate(p, rel, viewer, now)
		if p.QuotedPostID != nil {
			if q, ok := quoted[*p.QuotedPostID]; ok {
				mp.QuotedPost = decorate(q, rel, viewer, now)
			}
		}
		out[i] = mp
	}
	return out, nil
}

// quotedPosts loads quoted posts one level deep. Hidden ones resolve to absent
// unless the viewer created them or is an admin.
func (m *Materializer) quotedPosts(ctx context.Context, posts []*models.Post, viewer models.Viewer) (map[string]*models.Post, error) {
	var ids []string
	for _, p := range posts {
		if p.QuotedPostID != nil && *p.QuotedPostID != "" {
			ids = append(ids, *p.QuotedPostID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := m.resolver.PostsByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}

	quoted := make(map[string]*models.Post, len(found))
	for id, q := range found {
		if q == nil {
			continue
		}
		if !q.IsPublic && !viewer.Is(q.CreatorID) && !viewer.IsAdmin {
			continue
		}
		quoted[id] = q
	}
	return quoted, nil
}

func (m *Materializer) resolve(ctx context.Context, posts []*models.Post, viewer models.Viewer) (*relations, error) {
	var ids, creators, pollIDs []string
	for _, p := range posts {
		ids = append(ids, p.ID)
		creators = append(creators, p.CreatorID)
		if p.Poll != nil {
			pollIDs = append(pollIDs, p.ID)
		}
	}
	ids, creators, pollIDs = uniq(ids), uniq(creators), uniq(pollIDs)

	rel := &relations{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		rel.profiles, err = m.resolver.Profiles(ctx, creators)
		return err
	})
	g.Go(func() (err error) {
		rel.replies, err = m.resolver.ReplyCounts(ctx, ids)
		return err
	})
	g.Go(func() (err error) {
		rel.reposts, err = m.resolver.RepostCounts(ctx, ids)
		return err
	})
	g.Go(func() (err error) {
		rel.likes, err = m.resolver.LikeCounts(ctx, ids)
		return err
	})
	g.Go(func() (err error) {
		rel.views, err = m.resolver.ViewCounts(ctx, ids)
		return err
	})
	if len(pollIDs) > 0 {
		g.Go(func() (err error) {
			rel.tallies, err = m.resolver.VoteTallies(ctx, pollIDs)
			return err
		})
	}

	if !viewer.IsAnonymous() {
		g.Go(func() (err error) {
			rel.stats, err = m.resolver.ViewerStats(ctx, viewer.ID, ids)
			return err
		})
		g.Go(func() (err error) {
			rel.liked, err = m.resolver.ViewerLiked(ctx, viewer.ID, ids)
			return err
		})
		g.Go(func() (err error) {
			rel.bookmarked, err = m.resolver.ViewerBookmarked(ctx, viewer.ID, ids)
			return err
		})
		g.Go(func() (err error) {
			rel.reposted, err = m.resolver.ViewerReposted(ctx, viewer.ID, ids)
			return err
		})
		if len(pollIDs) > 0 {
			g.Go(func() (err error) {
				rel.votes, err = m.resolver.ViewerVotes(ctx, viewer.ID, pollIDs)
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rel, nil
}

func decorate(p *models.Post, rel *relations, viewer models.Viewer, now time.Time) *models.MaterializedPost {
	mp := &models.MaterializedPost{
		Post:         *p,
		RepliesCount: rel.replies[p.ID],
		RepostsCount: rel.reposts[p.ID],
		LikesCount:   rel.likes[p.ID],
		ViewsCount:   rel.views[p.ID],
	}
	mp.Images = append([]models.Image(nil), p.Images...)

	if profile, ok := rel.profiles[p.CreatorID]; ok {
		mp.CreatedBy = &profile
	}

	if row, ok := rel.stats[p.ID]; ok {
		mp.LoggedInUserActionState.ActionFlags = row.ActionFlags
	}
	mp.LoggedInUserActionState.IsBookmarked = rel.bookmarked[p.ID]
	mp.LoggedInUserActionState.IsLiked = rel.liked[p.ID]
	mp.LoggedInUserActionState.IsReposted = rel.reposted[p.ID]

	if p.Poll != nil {
		mp.Poll = decoratePoll(p, rel, viewer, now)
	}
	return mp
}

func decoratePoll(p *models.Post, rel *relations, viewer models.Viewer, now time.Time) *models.Poll {
	poll := p.Poll.Clone()
	tally := rel.tallies[p.ID]
	votedIdx, voted := rel.votes[p.ID]

	for i := range poll.Options {
		poll.Options[i].VoteCount = tally[i]
		poll.Options[i].IsLoggedInUserVoted = voted && votedIdx == i
	}

	poll.IsVotingOff = now.After(poll.ClosesAt(p.CreatedAt)) ||
		viewer.IsAnonymous() ||
		viewer.Is(p.CreatorID) ||
		voted
	return poll
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
