package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB holds raw JSON for a jsonb column. It is sent as text so the driver
// does not encode it as bytea.
type JSONB []byte

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
	return nil
}

// PostRow is the storage shape of a post: images and poll live in JSONB columns.
type PostRow struct {
	ID            string     `db:"id"`
	CreatorID     string     `db:"created_by"`
	Text          string     `db:"text"`
	Images        JSONB      `db:"images"`
	VideoURL      string     `db:"video_url"`
	Gif           string     `db:"gif"`
	Poll          JSONB      `db:"poll"`
	Location      string     `db:"location"`
	Schedule      *time.Time `db:"schedule"`
	QuotedPostID  *string    `db:"quoted_post_id"`
	ParentPostID  *string    `db:"parent_post_id"`
	Audience      string     `db:"audience"`
	Repliers      string     `db:"repliers"`
	IsPublic      bool       `db:"is_public"`
	IsDraft       bool       `db:"is_draft"`
	IsPinned      bool       `db:"is_pinned"`
	IsPromotional bool       `db:"is_promotional"`
	CompanyName   string     `db:"company_name"`
	LinkToSite    string     `db:"link_to_site"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// PostColumns is the select list matching PostRow
const PostColumns = `id, created_by, text, images, video_url, gif, poll, location, schedule,
	quoted_post_id, parent_post_id, audience, repliers, is_public, is_draft, is_pinned,
	is_promotional, company_name, link_to_site, created_at, updated_at`

func (r PostRow) ToPost() (*Post, error) {
	p := &Post{
		ID:            r.ID,
		CreatorID:     r.CreatorID,
		Text:          r.Text,
		VideoURL:      r.VideoURL,
		Gif:           r.Gif,
		Location:      r.Location,
		Schedule:      r.Schedule,
		QuotedPostID:  r.QuotedPostID,
		ParentPostID:  r.ParentPostID,
		Audience:      r.Audience,
		Repliers:      r.Repliers,
		IsPublic:      r.IsPublic,
		IsDraft:       r.IsDraft,
		IsPinned:      r.IsPinned,
		IsPromotional: r.IsPromotional,
		CompanyName:   r.CompanyName,
		LinkToSite:    r.LinkToSite,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if len(r.Images) > 0 {
		if err := json.Unmarshal(r.Images, &p.Images); err != nil {
			return nil, fmt.Errorf("post %s: bad images: %w", r.ID, err)
		}
	}
	if len(r.Poll) > 0 && string(r.Poll) != "null" {
		p.Poll = &Poll{}
		if err := json.Unmarshal(r.Poll, p.Poll); err != nil {
			return nil, fmt.Errorf("post %s: bad poll: %w", r.ID, err)
		}
	}
	return p, nil
}

// NewPostRow encodes a post for storage. Derived poll fields are not persisted.
func NewPostRow(p *Post) (PostRow, error) {
	row := PostRow{
		ID:            p.ID,
		CreatorID:     p.CreatorID,
		Text:          p.Text,
		VideoURL:      p.VideoURL,
		Gif:           p.Gif,
		Location:      p.Location,
		Schedule:      p.Schedule,
		QuotedPostID:  p.QuotedPostID,
		ParentPostID:  p.ParentPostID,
		Audience:      p.Audience,
		Repliers:      p.Repliers,
		IsPublic:      p.IsPublic,
		IsDraft:       p.IsDraft,
		IsPinned:      p.IsPinned,
		IsPromotional: p.IsPromotional,
		CompanyName:   p.CompanyName,
		LinkToSite:    p.LinkToSite,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}

	if len(p.Images) > 0 {
		raw, err := json.Marshal(p.Images)
		if err != nil {
			return PostRow{}, err
		}
		row.Images = raw
	}
	if p.Poll != nil {
		stored := Poll{Length: p.Poll.Length}
		for _, opt := range p.Poll.Options {
			stored.Options = append(stored.Options, PollOption{Text: opt.Text})
		}
		raw, err := json.Marshal(stored)
		if err != nil {
			return PostRow{}, err
		}
		row.Poll = raw
	}
	return row, nil
}
