package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/model"
	"github.com/sakif/quotefeed/internal/repository"
)

var _ repository.QuoteRepository = (*DB)(nil)

// CreateQuote inserts a new quote row. Write-side invariant: is_repost and original_quote_id are written
// together, so a row can never claim to be a repost without a reference
// (or carry a reference without the flag).
func (db *DB) CreateQuote(ctx context.Context, quote *model.Quote) error {
	if quote.IsRepost != (quote.OriginalQuoteID != "") {
		return fmt.Errorf("sqlite: creating quote: isRepost=%v but originalQuote=%q",
			quote.IsRepost, quote.OriginalQuoteID)
	}

	quote.ID = xid.New().String()
	quote.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO quotes (id, text, author_name, posted_by, is_repost, original_quote_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		quote.ID,
		quote.Text,
		quote.AuthorName,
		quote.PostedBy,
		quote.IsRepost,
		quote.OriginalQuoteID,
		quote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating quote: %w", err)
	}

	return nil
}

// getQuoteByID retrieves a single quote row (no joins). Only tests read
// quotes individually; the serving paths always go through the feeds.
func (db *DB) getQuoteByID(ctx context.Context, id string) (*model.Quote, error) {
	q, err := scanQuote(db.conn.QueryRowContext(ctx,
		`SELECT id, text, author_name, posted_by, is_repost, original_quote_id, created_at
		 FROM quotes WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("quote", id)
		}
		return nil, fmt.Errorf("sqlite: getting quote %s: %w", id, err)
	}
	return q, nil
}

// DeleteOwnedQuote removes the quote only if ownerID posted it, in one
// conditional DELETE — there is no window between an ownership check and
// the delete. Returns false when nothing was deleted (missing quote or a
// different owner); the caller cannot tell which, and that is the point.
//
// Likes and comments on the quote cascade; repost-copies of it and their
// entries in other users' reposters sets do not (preserved asymmetry).
func (db *DB) DeleteOwnedQuote(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM quotes WHERE id = ? AND posted_by = ?`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting quote %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ToggleLike flips userID's membership in the quote's likers set.
//
// The flip is a conditional INSERT: ON CONFLICT DO NOTHING against the
// (quote_id, user_id) primary key. If the insert took, the user just
// liked the quote; if it affected zero rows the membership already
// existed and we delete it instead. Membership test and write are the
// same statement, so two interleaved requests from one user can never
// produce a duplicate row — the worst interleaving yields two unlikes.
func (db *DB) ToggleLike(ctx context.Context, quoteID, userID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning like toggle: %w", err)
	}
	defer tx.Rollback()

	if err := quoteExists(ctx, tx, quoteID); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO quote_likes (quote_id, user_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (quote_id, user_id) DO NOTHING`,
		quoteID, userID, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: liking quote %s: %w", quoteID, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	liked := inserted > 0
	if !liked {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM quote_likes WHERE quote_id = ? AND user_id = ?`,
			quoteID, userID,
		); err != nil {
			return false, fmt.Errorf("sqlite: unliking quote %s: %w", quoteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing like toggle: %w", err)
	}
	return liked, nil
}

// ToggleRepost flips userID's membership in the quote's reposters set and
// creates or deletes the matching repost-copy, as one transaction.
//
// Issued as two independent writes, a failure between the halves would
// leave the set and the copy diverged forever. Here both commit or
// neither does, and a count check runs inside the transaction before
// commit — if the halves somehow disagree the transaction rolls back and
// the caller gets ErrConsistency instead of a silently corrupt store.
func (db *DB) ToggleRepost(ctx context.Context, quoteID, userID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning repost toggle: %w", err)
	}
	defer tx.Rollback()

	original, err := scanQuote(tx.QueryRowContext(ctx,
		`SELECT id, text, author_name, posted_by, is_repost, original_quote_id, created_at
		 FROM quotes WHERE id = ?`,
		quoteID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return false, apperror.NotFound("quote", quoteID)
		}
		return false, fmt.Errorf("sqlite: getting quote %s: %w", quoteID, err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO quote_reposts (quote_id, user_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (quote_id, user_id) DO NOTHING`,
		quoteID, userID, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: adding reposter on quote %s: %w", quoteID, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	reposted := inserted > 0
	if reposted {
		// Toggle on: the copy duplicates the original's content and is
		// owned by the reposting user.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quotes (id, text, author_name, posted_by, is_repost, original_quote_id, created_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			xid.New().String(),
			original.Text,
			original.AuthorName,
			userID,
			quoteID,
			time.Now(),
		); err != nil {
			return false, fmt.Errorf("sqlite: creating repost copy of %s: %w", quoteID, err)
		}
	} else {
		// Toggle off: remove the membership and the single copy.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM quote_reposts WHERE quote_id = ? AND user_id = ?`,
			quoteID, userID,
		); err != nil {
			return false, fmt.Errorf("sqlite: removing reposter on quote %s: %w", quoteID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM quotes
			 WHERE original_quote_id = ? AND posted_by = ? AND is_repost = 1`,
			quoteID, userID,
		); err != nil {
			return false, fmt.Errorf("sqlite: deleting repost copy of %s: %w", quoteID, err)
		}
	}

	// Reconciliation check: membership and copy count must be in
	// lock-step before this transaction is allowed to commit.
	var member, copies int
	if err := tx.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM quote_reposts WHERE quote_id = ? AND user_id = ?),
			(SELECT COUNT(*) FROM quotes
			 WHERE original_quote_id = ? AND posted_by = ? AND is_repost = 1)`,
		quoteID, userID, quoteID, userID,
	).Scan(&member, &copies); err != nil {
		return false, fmt.Errorf("sqlite: verifying repost toggle on %s: %w", quoteID, err)
	}

	want := 0
	if reposted {
		want = 1
	}
	if member != want || copies != want {
		return false, apperror.Consistency(fmt.Sprintf(
			"repost toggle on quote %s by user %s diverged: membership=%d copies=%d want=%d",
			quoteID, userID, member, copies, want))
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing repost toggle: %w", err)
	}
	return reposted, nil
}

// AddComment appends a comment to the quote's comment sequence.
func (db *DB) AddComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, quote_id, user_id, text, created_at)
		 SELECT ?, id, ?, ?, ? FROM quotes WHERE id = ?`,
		comment.ID,
		comment.UserID,
		comment.Text,
		comment.CreatedAt,
		comment.QuoteID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding comment to quote %s: %w", comment.QuoteID, err)
	}

	// INSERT ... SELECT inserts zero rows when the quote is gone — that
	// is our existence check and the insert in one statement.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("quote", comment.QuoteID)
	}

	return nil
}

// GlobalFeed returns every non-repost quote, newest first. The secondary
// ORDER BY id makes creation-time ties deterministic across requests.
func (db *DB) GlobalFeed(ctx context.Context) ([]model.FeedQuote, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT q.id, q.text, q.author_name, q.posted_by, q.is_repost,
		        q.original_quote_id, q.created_at, u.username
		 FROM quotes q
		 JOIN users u ON u.id = q.posted_by
		 WHERE q.is_repost = 0
		 ORDER BY q.created_at DESC, q.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feed: %w", err)
	}
	defer rows.Close()

	feed, err := scanFeedQuotes(rows, false)
	if err != nil {
		return nil, err
	}

	if err := db.attachEngagement(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// FeedByUser returns all quotes the user posted, reposts included. Repost
// rows come back with the original quote joined in; a repost whose
// original has been deleted keeps a nil Original (dangling reference —
// the delete gap again).
func (db *DB) FeedByUser(ctx context.Context, userID string) ([]model.FeedQuote, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT q.id, q.text, q.author_name, q.posted_by, q.is_repost,
		        q.original_quote_id, q.created_at, u.username,
		        o.id, o.text, o.author_name, o.posted_by, o.is_repost,
		        o.original_quote_id, o.created_at
		 FROM quotes q
		 JOIN users u ON u.id = q.posted_by
		 LEFT JOIN quotes o ON o.id = q.original_quote_id AND q.is_repost = 1
		 WHERE q.posted_by = ?
		 ORDER BY q.created_at DESC, q.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing quotes for user %s: %w", userID, err)
	}
	defer rows.Close()

	feed, err := scanFeedQuotes(rows, true)
	if err != nil {
		return nil, err
	}

	if err := db.attachEngagement(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// quoteExists checks the quote row inside the caller's transaction.
func quoteExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM quotes WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return apperror.NotFound("quote", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: checking quote %s: %w", id, err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*model.Quote, error) {
	var q model.Quote
	err := row.Scan(
		&q.ID,
		&q.Text,
		&q.AuthorName,
		&q.PostedBy,
		&q.IsRepost,
		&q.OriginalQuoteID,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// scanFeedQuotes reads feed rows. withOriginal indicates the query
// LEFT-JOINed the original quote's columns (profile feed).
func scanFeedQuotes(rows *sql.Rows, withOriginal bool) ([]model.FeedQuote, error) {
	feed := []model.FeedQuote{}

	for rows.Next() {
		var fq model.FeedQuote
		dest := []any{
			&fq.ID, &fq.Text, &fq.AuthorName, &fq.PostedBy, &fq.IsRepost,
			&fq.OriginalQuoteID, &fq.CreatedAt, &fq.PostedByName,
		}

		var (
			oID, oText, oAuthor, oPostedBy, oOriginal sql.NullString
			oIsRepost                                 sql.NullBool
			oCreatedAt                                sql.NullTime
		)
		if withOriginal {
			dest = append(dest,
				&oID, &oText, &oAuthor, &oPostedBy, &oIsRepost, &oOriginal, &oCreatedAt)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feed row: %w", err)
		}

		if withOriginal && oID.Valid {
			fq.Original = &model.Quote{
				ID:              oID.String,
				Text:            oText.String,
				AuthorName:      oAuthor.String,
				PostedBy:        oPostedBy.String,
				IsRepost:        oIsRepost.Bool,
				OriginalQuoteID: oOriginal.String,
				CreatedAt:       oCreatedAt.Time,
			}
		}

		fq.Likes = []string{}
		fq.Reposts = []string{}
		fq.Comments = []model.CommentView{}
		feed = append(feed, fq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feed rows: %w", err)
	}
	return feed, nil
}

// attachEngagement loads the likers sets, reposters sets, and comments
// for the given quotes in three batched queries (read-time joins — there
// is no denormalised counter anywhere to drift out of sync).
func (db *DB) attachEngagement(ctx context.Context, feed []model.FeedQuote) error {
	if len(feed) == 0 {
		return nil
	}

	index := make(map[string]*model.FeedQuote, len(feed))
	args := make([]any, len(feed))
	for i := range feed {
		index[feed[i].ID] = &feed[i]
		args[i] = feed[i].ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(feed)), ",")

	// Likers, in insertion order.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT quote_id, user_id FROM quote_likes
		 WHERE quote_id IN (`+placeholders+`)
		 ORDER BY created_at, rowid`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading likes: %w", err)
	}
	if err := collectMembers(rows, index, func(fq *model.FeedQuote, userID string) {
		fq.Likes = append(fq.Likes, userID)
	}); err != nil {
		return err
	}

	// Reposters, in insertion order.
	rows, err = db.conn.QueryContext(ctx,
		`SELECT quote_id, user_id FROM quote_reposts
		 WHERE quote_id IN (`+placeholders+`)
		 ORDER BY created_at, rowid`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading reposts: %w", err)
	}
	if err := collectMembers(rows, index, func(fq *model.FeedQuote, userID string) {
		fq.Reposts = append(fq.Reposts, userID)
	}); err != nil {
		return err
	}

	// Comments with commenter usernames, oldest first.
	rows, err = db.conn.QueryContext(ctx,
		`SELECT c.id, c.quote_id, c.user_id, c.text, c.created_at, u.username
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.quote_id IN (`+placeholders+`)
		 ORDER BY c.created_at, c.rowid`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cv model.CommentView
		if err := rows.Scan(&cv.ID, &cv.QuoteID, &cv.UserID, &cv.Text, &cv.CreatedAt, &cv.Username); err != nil {
			return fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		if fq, ok := index[cv.QuoteID]; ok {
			fq.Comments = append(fq.Comments, cv)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating comment rows: %w", err)
	}

	return nil
}

func collectMembers(rows *sql.Rows, index map[string]*model.FeedQuote, add func(*model.FeedQuote, string)) error {
	defer rows.Close()

	for rows.Next() {
		var quoteID, userID string
		if err := rows.Scan(&quoteID, &userID); err != nil {
			return fmt.Errorf("sqlite: scanning membership row: %w", err)
		}
		if fq, ok := index[quoteID]; ok {
			add(fq, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating membership rows: %w", err)
	}
	return nil
}
