package model

import "time"

// Quote is a posted quote. AuthorName is free text — the person being
// quoted, not necessarily a registered user. PostedBy is the ID of the
// account that posted it.
//
// A repost is a full Quote row of its own: IsRepost is true and
// OriginalQuoteID points at the quote it was reposted from. The invariant
// is IsRepost == (OriginalQuoteID != ""), enforced by the repository.
type Quote struct {
	ID              string    `json:"id"              db:"id"`
	Text            string    `json:"text"            db:"text"`
	AuthorName      string    `json:"authorName"      db:"author_name"`
	PostedBy        string    `json:"postedBy"        db:"posted_by"`
	IsRepost        bool      `json:"isRepost"        db:"is_repost"`
	OriginalQuoteID string    `json:"originalQuote,omitempty" db:"original_quote_id"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
}

// Comment lives under exactly one quote and has no identity of its own
// outside it. UserID is the commenting account.
type Comment struct {
	ID        string    `json:"id"        db:"id"`
	QuoteID   string    `json:"quoteId"   db:"quote_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Text      string    `json:"text"      db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CommentView is a Comment with the commenter's username resolved at read
// time, for display.
type CommentView struct {
	Comment
	Username string `json:"username"`
}

// FeedQuote is the shape the feed pages render: a quote with its poster,
// liker/reposter sets, and comments resolved by read-time joins.
//
// Likes and Reposts hold user IDs in insertion order. They are sets — the
// storage layer guarantees a user appears at most once in each.
//
// Original is populated for repost entries on profile pages so the
// template can show the reposted quote's text. It stays nil for
// non-reposts, and also when the original has since been deleted (the
// dangling-reference gap described in the README).
type FeedQuote struct {
	Quote
	PostedByName string        `json:"postedByName"`
	Likes        []string      `json:"likes"`
	Reposts      []string      `json:"reposts"`
	Comments     []CommentView `json:"comments"`
	Original     *Quote        `json:"original,omitempty"`
}

// LikedBy reports whether the given user is in the likers set.
// Used by templates to label the like button.
func (q *FeedQuote) LikedBy(userID string) bool {
	for _, id := range q.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// RepostedBy reports whether the given user is in the reposters set.
func (q *FeedQuote) RepostedBy(userID string) bool {
	for _, id := range q.Reposts {
		if id == userID {
			return true
		}
	}
	return false
}
