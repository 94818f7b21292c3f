// internal/feed/service.go
// Assembles a feed from organic posts, reposts and shuffled promotional posts.

package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
	"github.com/imadgeboyega/kiekky-feed/internal/engagement"
	"github.com/imadgeboyega/kiekky-feed/internal/metrics"
	"github.com/imadgeboyega/kiekky-feed/internal/posts"
)

// PostReader is the read side of the post store
type PostReader interface {
	ReadFilter(ctx context.Context, viewer models.Viewer) (posts.ReadFilter, error)
	FindPosts(ctx context.Context, q posts.Query) ([]*models.Post, error)
	FindPromotional(ctx context.Context, filter posts.ReadFilter) ([]*models.Post, error)
}

type Materializer interface {
	Materialize(ctx context.Context, posts []*models.Post, viewer models.Viewer) ([]*models.MaterializedPost, error)
}

type Service interface {
	QueryFeed(ctx context.Context, viewer models.Viewer, params Params) ([]Item, error)
}

type Config struct {
	PromoEvery   int
	DefaultLimit int
	MaxLimit     int
}

type service struct {
	posts        PostReader
	reposts      engagement.RepostLister
	materializer Materializer
	cfg          Config
	shuffle      func(n int, swap func(i, j int))
}

func NewService(postReader PostReader, reposts engagement.RepostLister, materializer Materializer, cfg Config) Service {
	return &service{
		posts:        postReader,
		reposts:      reposts,
		materializer: materializer,
		cfg:          cfg,
		shuffle:      rand.Shuffle,
	}
}

// entry is a feed slot before materialization
type entry struct {
	kind   ItemType
	post   *models.Post
	repost *models.RepostView
}

func (s *service) QueryFeed(ctx context.Context, viewer models.Viewer, params Params) ([]Item, error) {
	if err := utils.ValidateStruct(params); err != nil {
		return nil, err
	}
	params = s.normalize(params)

	filter, err := s.posts.ReadFilter(ctx, viewer)
	if err != nil {
		return nil, err
	}

	var (
		organic []*models.Post
		reposts []models.RepostView
		promos  []*models.Post
	)
	offset := (params.Page - 1) * params.Limit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		organic, err = s.posts.FindPosts(gctx, posts.Query{
			ReadFilter:   filter,
			CreatorID:    params.CreatorID,
			ParentPostID: params.ParentPostID,
			Ascending:    params.Sort == SortOldest,
			Limit:        params.Limit,
			Offset:       offset,
		})
		return err
	})
	if params.IncludeReposts && params.ParentPostID == "" {
		g.Go(func() error {
			var err error
			reposts, err = s.reposts.ListReposts(gctx, engagement.RepostQuery{
				ExcludeCreatorIDs: filter.BlockedCreatorIDs,
				UserID:            params.CreatorID,
				Unrestricted:      filter.Unrestricted,
				Limit:             params.Limit,
				Offset:            offset,
			})
			return err
		})
	}
	if params.IncludePromotions {
		g.Go(func() error {
			var err error
			promos, err = s.posts.FindPromotional(gctx, filter)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}

	merged := merge(organic, reposts, params.Sort == SortOldest)
	s.shuffle(len(promos), func(i, j int) { promos[i], promos[j] = promos[j], promos[i] })
	entries := interleave(merged, newPromoQueue(promos), s.cfg.PromoEvery)

	return s.materialize(ctx, entries, viewer)
}

func (s *service) normalize(p Params) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = s.cfg.DefaultLimit
	}
	if p.Limit > s.cfg.MaxLimit {
		p.Limit = s.cfg.MaxLimit
	}
	if p.Sort == "" {
		p.Sort = SortNewest
	}
	return p
}

// merge orders organic posts and reposts together by time. The sort is stable so
// equal timestamps keep organic posts ahead of reposts.
func merge(organic []*models.Post, reposts []models.RepostView, ascending bool) []entry {
	out := make([]entry, 0, len(organic)+len(reposts))
	for _, p := range organic {
		out = append(out, entry{kind: ItemPost, post: p})
	}
	for i := range reposts {
		out = append(out, entry{kind: ItemRepost, post: reposts[i].Post, repost: &reposts[i]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].at(), out[j].at()
		if ascending {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
	return out
}

func (e entry) at() time.Time {
	if e.repost != nil {
		return e.repost.CreatedAt
	}
	return e.post.CreatedAt
}

// interleave puts one promotion in front of every merged index i with
// i%every == 0 and i != 0, until the queue runs out
func interleave(merged []entry, queue promoQueue, every int) []entry {
	out := make([]entry, 0, len(merged)+queue.len())
	for i, e := range merged {
		if every > 0 && i != 0 && i%every == 0 {
			var promo *models.Post
			if promo, queue = queue.pop(); promo != nil {
				out = append(out, entry{kind: ItemPromotion, post: promo})
				metrics.RecordPromotionInjected()
			}
		}
		out = append(out, e)
	}
	return out
}

// promoQueue is a value type: pop returns the shortened queue
type promoQueue struct {
	items []*models.Post
}

func newPromoQueue(items []*models.Post) promoQueue {
	return promoQueue{items: items}
}

func (q promoQueue) len() int { return len(q.items) }

func (q promoQueue) pop() (*models.Post, promoQueue) {
	if len(q.items) == 0 {
		return nil, q
	}
	return q.items[0], promoQueue{items: q.items[1:]}
}

func (s *service) materialize(ctx context.Context, entries []entry, viewer models.Viewer) ([]Item, error) {
	batch := make([]*models.Post, len(entries))
	for i, e := range entries {
		batch[i] = e.post
	}

	decorated, err := s.materializer.Materialize(ctx, batch, viewer)
	if err != nil {
		return nil, fmt.Errorf("materialize feed: %w", err)
	}

	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Type: e.kind, Post: decorated[i]}
		if e.repost != nil {
			at := e.repost.CreatedAt
			items[i].RepostedAt = &at
			items[i].RepostedBy = e.repost.RepostedBy
		}
	}
	return items, nil
}
