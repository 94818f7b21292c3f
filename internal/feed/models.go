// internal/feed/models.go
package feed

import (
	"encoding/json"
	"time"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

const (
	SortNewest = "-createdAt"
	SortOldest = "createdAt"
)

// Params are the feed query parameters. Page starts at 1.
type Params struct {
	CreatorID         string   `validate:"omitempty,uuid"`
	ParentPostID      string   `validate:"omitempty,uuid"`
	Page              int      `validate:"gte=0"`
	Limit             int      `validate:"gte=0"`
	Sort              string   `validate:"omitempty,oneof=-createdAt createdAt"`
	Fields            []string `validate:"omitempty,dive,required"`
	IncludeReposts    bool
	IncludePromotions bool
}

type ItemType string

const (
	ItemPost      ItemType = "post"
	ItemRepost    ItemType = "repost"
	ItemPromotion ItemType = "promotion"
)

// Item is one entry of an assembled feed
type Item struct {
	Type       ItemType                 `json:"type"`
	Post       *models.MaterializedPost `json:"post"`
	RepostedBy *models.UserView         `json:"repostedBy,omitempty"`
	RepostedAt *time.Time               `json:"repostedAt,omitempty"`
}

// ProjectedItem is an Item whose post carries only the requested fields
type ProjectedItem struct {
	Type       ItemType                   `json:"type"`
	Post       map[string]json.RawMessage `json:"post"`
	RepostedBy *models.UserView           `json:"repostedBy,omitempty"`
	RepostedAt *time.Time                 `json:"repostedAt,omitempty"`
}

// Project keeps the named top-level post fields. The id is always kept.
func Project(items []Item, fields []string) ([]ProjectedItem, error) {
	keep := map[string]bool{"id": true}
	for _, f := range fields {
		keep[f] = true
	}

	out := make([]ProjectedItem, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item.Post)
		if err != nil {
			return nil, err
		}
		var all map[string]json.RawMessage
		if err := json.Unmarshal(raw, &all); err != nil {
			return nil, err
		}

		post := make(map[string]json.RawMessage, len(keep))
		for k, v := range all {
			if keep[k] {
				post[k] = v
			}
		}
		out = append(out, ProjectedItem{
			Type:       item.Type,
			Post:       post,
			RepostedBy: item.RepostedBy,
			RepostedAt: item.RepostedAt,
		})
	}
	return out, nil
}
