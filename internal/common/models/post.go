// internal/common/models/post.go
package models

import (
	"time"
)

const (
	AudienceEveryone = "everyone"
	AudienceCircle   = "circle"

	RepliersEveryone  = "everyone"
	RepliersFollowed  = "followed"
	RepliersMentioned = "mentioned"

	MinPollOptions    = 2
	MaxPollOptions    = 5
	MaxPollLength     = 7 * 24 * time.Hour
	DefaultPollLength = 24 * time.Hour
)

type Post struct {
	ID           string     `json:"id" db:"id"`
	CreatorID    string     `json:"creatorId" db:"created_by"`
	Text         string     `json:"text,omitempty" db:"text"`
	Images       []Image    `json:"images,omitempty" db:"-"`
	VideoURL     string     `json:"videoUrl,omitempty" db:"video_url"`
	Gif          string     `json:"gif,omitempty" db:"gif"`
	Poll         *Poll      `json:"poll,omitempty" db:"-"`
	Location     string     `json:"location,omitempty" db:"location"`
	Schedule     *time.Time `json:"schedule,omitempty" db:"schedule"`
	QuotedPostID *string    `json:"quotedPostId,omitempty" db:"quoted_post_id"`
	ParentPostID *string    `json:"parentPostId,omitempty" db:"parent_post_id"`
	Audience     string     `json:"audience" db:"audience"`
	Repliers     string     `json:"repliers" db:"repliers"`
	IsPublic     bool       `json:"isPublic" db:"is_public"`
	IsDraft      bool       `json:"isDraft" db:"is_draft"`
	IsPinned     bool       `json:"isPinned" db:"is_pinned"`

	// Promotional variant
	IsPromotional bool   `json:"isPromotional,omitempty" db:"is_promotional"`
	CompanyName   string `json:"companyName,omitempty" db:"company_name"`
	LinkToSite    string `json:"linkToSite,omitempty" db:"link_to_site"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// HasContent reports whether at least one content field is present.
func (p *Post) HasContent() bool {
	return p.Text != "" || p.Gif != "" || len(p.Images) > 0 || p.Poll != nil || p.VideoURL != ""
}

type Image struct {
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

type Poll struct {
	Options     []PollOption `json:"options"`
	Length      PollLength   `json:"length"`
	IsVotingOff bool         `json:"isVotingOff"`
}

type PollOption struct {
	Text                string `json:"text"`
	VoteCount           int    `json:"voteCount"`
	IsLoggedInUserVoted bool   `json:"isLoggedInUserVoted"`
}

type PollLength struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (l PollLength) Duration() time.Duration {
	return time.Duration(l.Days)*24*time.Hour +
		time.Duration(l.Hours)*time.Hour +
		time.Duration(l.Minutes)*time.Minute
}

func (l PollLength) IsZero() bool {
	return l.Days == 0 && l.Hours == 0 && l.Minutes == 0
}

// ClosesAt is the end of the voting window of a poll attached to a post created at createdAt.
func (p *Poll) ClosesAt(createdAt time.Time) time.Time {
	return createdAt.Add(p.Length.Duration())
}

// Clone copies the poll so derived fields can be set without touching the stored value.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = append([]PollOption(nil), p.Options...)
	return &cp
}

// UserView is the public profile of a user as exposed next to a post.
type UserView struct {
	ID             string `json:"id" db:"id"`
	Username       string `json:"username" db:"username"`
	DisplayName    string `json:"displayName" db:"display_name"`
	ProfilePicture string `json:"profilePicture,omitempty" db:"profile_picture"`
}

// MaterializedPost is a post enriched with derived, per-viewer state.
type MaterializedPost struct {
	Post
	CreatedBy               *UserView         `json:"createdBy,omitempty"`
	QuotedPost              *MaterializedPost `json:"quotedPost,omitempty"`
	RepliesCount            int               `json:"repliesCount"`
	RepostsCount            int               `json:"repostsCount"`
	LikesCount              int               `json:"likesCount"`
	ViewsCount              int               `json:"viewsCount"`
	LoggedInUserActionState ActionState       `json:"loggedInUserActionState"`
}
