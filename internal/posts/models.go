// internal/posts/models.go
package posts

import (
	"time"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

type CreatePostRequest struct {
	Text     string       `json:"text"`
	Images   []string     `json:"images,omitempty" validate:"omitempty,dive,url"`
	VideoURL string       `json:"videoUrl,omitempty" validate:"omitempty,url"`
	Gif      string       `json:"gif,omitempty" validate:"omitempty,url"`
	Poll     *PollRequest `json:"poll,omitempty"`
	Location string       `json:"location,omitempty" validate:"max=255"`
	Schedule *time.Time   `json:"schedule,omitempty"`
	Audience string       `json:"audience,omitempty" validate:"omitempty,oneof=everyone circle"`
	Repliers string       `json:"repliers,omitempty" validate:"omitempty,oneof=everyone followed mentioned"`
	IsDraft  bool         `json:"isDraft,omitempty"`

	// Admin only
	IsPromotional bool   `json:"isPromotional,omitempty"`
	CompanyName   string `json:"companyName,omitempty" validate:"max=255"`
	LinkToSite    string `json:"linkToSite,omitempty" validate:"omitempty,url"`
}

type PollRequest struct {
	Options []string          `json:"options"`
	Length  models.PollLength `json:"length"`
}

type CreateThreadRequest struct {
	Posts []CreatePostRequest `json:"posts" validate:"required,min=1,dive"`
}

type UpdatePostRequest struct {
	Text string `json:"text"`
}

// ThreadResult lists what was created; failed items are reported by index
type ThreadResult struct {
	Posts  []*models.MaterializedPost `json:"posts"`
	Errors []ThreadItemError          `json:"errors,omitempty"`
}

type ThreadItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// QuoteOrRepostResult holds the quote post, or the new repost state when no content was given
type QuoteOrRepostResult struct {
	Post     *models.MaterializedPost `json:"post,omitempty"`
	Reposted *bool                    `json:"reposted,omitempty"`
}

// ReadFilter is the visibility applied to every read
type ReadFilter struct {
	Unrestricted      bool
	BlockedCreatorIDs []string
}

// Query selects organic posts for a feed page
type Query struct {
	ReadFilter
	CreatorID    string
	ParentPostID string
	Ascending    bool
	Limit        int
	Offset       int
}

// toPost builds the unsaved post for creatorID
func (req *CreatePostRequest) toPost(creatorID string) *models.Post {
	post := &models.Post{
		CreatorID:     creatorID,
		Text:          req.Text,
		VideoURL:      req.VideoURL,
		Gif:           req.Gif,
		Location:      req.Location,
		Schedule:      req.Schedule,
		Audience:      req.Audience,
		Repliers:      req.Repliers,
		IsDraft:       req.IsDraft,
		IsPromotional: req.IsPromotional,
		CompanyName:   req.CompanyName,
		LinkToSite:    req.LinkToSite,
	}

	for _, url := range req.Images {
		post.Images = append(post.Images, models.Image{URL: url})
	}

	if req.Poll != nil {
		post.Poll = &models.Poll{Length: req.Poll.Length}
		for _, opt := range req.Poll.Options {
			post.Poll.Options = append(post.Poll.Options, models.PollOption{Text: opt})
		}
	}
	return post
}
