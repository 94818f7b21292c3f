// internal/common/models/engagement.go
package models

import "time"

// Engagement is a (post, user) pair row: likes, bookmarks and reposts share this shape.
type Engagement struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"postId" db:"post_id"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// RepostView is a repost projected with its joined post and reposting user.
type RepostView struct {
	Engagement
	Post       *Post     `json:"post,omitempty"`
	RepostedBy *UserView `json:"repostedBy,omitempty"`
}

type PollVote struct {
	PostID    string    `json:"postId" db:"post_id"`
	UserID    string    `json:"userId" db:"user_id"`
	OptionIdx int       `json:"optionIdx" db:"option_idx"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// StatFlag names one boolean event column of a post_stats row.
type StatFlag string

const (
	FlagViewed           StatFlag = "is_viewed"
	FlagDetailViewed     StatFlag = "is_detail_viewed"
	FlagProfileViewed    StatFlag = "is_profile_viewed"
	FlagFollowedFromPost StatFlag = "is_followed_from_post"
	FlagBlockedFromPost  StatFlag = "is_blocked_from_post"
	FlagMutedFromPost    StatFlag = "is_muted_from_post"
	FlagHashtagClicked   StatFlag = "is_hashtag_clicked"
	FlagLinkClicked      StatFlag = "is_link_clicked"
	FlagLinkCopied       StatFlag = "is_link_copied"
	FlagShared           StatFlag = "is_shared"
	FlagSentInMessage    StatFlag = "is_sent_in_message"
	FlagBookmarked       StatFlag = "is_bookmarked"
)

// StatFlags lists every post_stats flag in column order.
var StatFlags = []StatFlag{
	FlagViewed, FlagDetailViewed, FlagProfileViewed, FlagFollowedFromPost,
	FlagBlockedFromPost, FlagMutedFromPost, FlagHashtagClicked, FlagLinkClicked,
	FlagLinkCopied, FlagShared, FlagSentInMessage, FlagBookmarked,
}

func (f StatFlag) Valid() bool {
	for _, known := range StatFlags {
		if f == known {
			return true
		}
	}
	return false
}

// PostStatsRow is one viewer's event flags for one post.
type PostStatsRow struct {
	PostID string `json:"postId" db:"post_id"`
	UserID string `json:"userId" db:"user_id"`
	ActionFlags
}

type ActionFlags struct {
	IsViewed           bool `json:"isViewed" db:"is_viewed"`
	IsDetailViewed     bool `json:"isDetailViewed" db:"is_detail_viewed"`
	IsProfileViewed    bool `json:"isProfileViewed" db:"is_profile_viewed"`
	IsFollowedFromPost bool `json:"isFollowedFromPost" db:"is_followed_from_post"`
	IsBlockedFromPost  bool `json:"isBlockedFromPost" db:"is_blocked_from_post"`
	IsMutedFromPost    bool `json:"isMutedFromPost" db:"is_muted_from_post"`
	IsHashtagClicked   bool `json:"isHashtagClicked" db:"is_hashtag_clicked"`
	IsLinkClicked      bool `json:"isLinkClicked" db:"is_link_clicked"`
	IsLinkCopied       bool `json:"isLinkCopied" db:"is_link_copied"`
	IsShared           bool `json:"isShared" db:"is_shared"`
	IsSentInMessage    bool `json:"isSentInMessage" db:"is_sent_in_message"`
	IsBookmarked       bool `json:"isBookmarked" db:"is_bookmarked"`
}

// ActionState is what the viewer has done with a post. The zero value means nothing.
type ActionState struct {
	ActionFlags
	IsLiked    bool `json:"isLiked"`
	IsReposted bool `json:"isReposted"`
}

// FlagSums holds one count per post_stats flag.
type FlagSums struct {
	ViewsCount          int `json:"viewsCount" db:"views_count"`
	DetailsViewsCount   int `json:"detailsViewsCount" db:"details_views_count"`
	ProfileViewsCount   int `json:"profileViewsCount" db:"profile_views_count"`
	FollowsCount        int `json:"followsCount" db:"follows_count"`
	BlocksCount         int `json:"blocksCount" db:"blocks_count"`
	MutesCount          int `json:"mutesCount" db:"mutes_count"`
	HashtagClicksCount  int `json:"hashtagClicksCount" db:"hashtag_clicks_count"`
	LinkClicksCount     int `json:"linkClicksCount" db:"link_clicks_count"`
	LinkCopiesCount     int `json:"linkCopiesCount" db:"link_copies_count"`
	SharesCount         int `json:"sharesCount" db:"shares_count"`
	SentInMessagesCount int `json:"sentInMessagesCount" db:"sent_in_messages_count"`
	BookmarksCount      int `json:"bookmarksCount" db:"bookmarks_count"`
}

func (s FlagSums) Total() int {
	return s.ViewsCount + s.DetailsViewsCount + s.ProfileViewsCount + s.FollowsCount +
		s.BlocksCount + s.MutesCount + s.HashtagClicksCount + s.LinkClicksCount +
		s.LinkCopiesCount + s.SharesCount + s.SentInMessagesCount + s.BookmarksCount
}

// PostStatsSummary is the full statistics view of one post. Every field is always set.
type PostStatsSummary struct {
	PostID string `json:"postId"`
	FlagSums
	LikesCount      int `json:"likesCount"`
	RepostCount     int `json:"repostCount"`
	RepliesCount    int `json:"repliesCount"`
	EngagementCount int `json:"engagementCount"`
}
