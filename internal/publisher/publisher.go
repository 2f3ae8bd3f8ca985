// Package publisher keeps exactly one live status comment per context on a review thread.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codex-k8s/werkschrift/internal/marker"
)

// bodySeparator sits between the rendered summary and the fingerprint.
const bodySeparator = "\n\n"

// Action tells whether Publish created a comment or updated an existing one.
type Action string

const (
	// ActionCreated means no owned comment existed and a new one was posted.
	ActionCreated Action = "created"
	// ActionUpdated means an owned comment was found and rewritten.
	ActionUpdated Action = "updated"
)

// Comment is a snapshot of one comment on a thread, as returned by a page fetch.
type Comment struct {
	// ID is the opaque remote identifier used for updates.
	ID string
	// ViewerDidAuthor is true when the acting identity wrote the comment.
	ViewerDidAuthor bool
	// IsMinimized is true when the platform hides the comment.
	IsMinimized bool
	// Body is the raw markdown body.
	Body string
	// URL is the public location of the comment.
	URL string
}

// Page is one slice of a thread's comment stream.
type Page struct {
	// Comments are listed in the order the remote returned them.
	Comments []Comment
	// EndCursor continues the stream after this page.
	EndCursor string
	// HasNextPage is true while more pages exist.
	HasNextPage bool
}

// Backend is the remote side of a publish: page reads plus the two mutations.
type Backend interface {
	// FetchCommentsPage returns the page after cursor; an empty cursor asks for the first page.
	FetchCommentsPage(ctx context.Context, threadID, cursor string) (Page, error)
	// CreateComment posts body on threadID and returns the new comment's URL.
	CreateComment(ctx context.Context, threadID, body string) (string, error)
	// UpdateComment replaces the body of commentID and returns its URL.
	UpdateComment(ctx context.Context, commentID, body string) (string, error)
}

// Result describes the outcome of a publish.
type Result struct {
	// URL is the location reported by the mutation.
	URL string
	// CommentID is the updated comment's id; empty for created comments.
	CommentID string
	// Action is what the publish did.
	Action Action
	// Pages is the number of page fetches performed while searching.
	Pages int
}

// Publisher upserts fingerprinted comments through a Backend.
// It keeps no state between calls.
type Publisher struct {
	logger  *slog.Logger
	backend Backend
	codec   marker.Codec
}

// New constructs a Publisher. A nil logger discards log output.
func New(logger *slog.Logger, backend Backend, codec marker.Codec) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		logger:  logger,
		backend: backend,
		codec:   codec,
	}
}

// Publish updates the comment owned by attrs on threadID, or creates it, and returns its URL.
func (p *Publisher) Publish(ctx context.Context, threadID string, attrs marker.Context, summary string) (string, error) {
	res, err := p.PublishResult(ctx, threadID, attrs, summary)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// PublishResult is Publish returning the full Result.
func (p *Publisher) PublishResult(ctx context.Context, threadID string, attrs marker.Context, summary string) (Result, error) {
	fingerprint, err := p.codec.Encode(attrs)
	if err != nil {
		return Result{}, fmt.Errorf("encode comment marker: %w", err)
	}

	existing, pages, err := p.Find(ctx, threadID, fingerprint)
	if err != nil {
		return Result{}, err
	}

	body := summary + bodySeparator + fingerprint

	if existing != nil {
		url, err := p.backend.UpdateComment(ctx, existing.ID, body)
		if err != nil {
			return Result{}, &RemoteError{Op: OpUpdateComment, Err: err}
		}
		p.logger.Info("comment updated", "thread", threadID, "comment", existing.ID, "url", url)
		return Result{URL: url, CommentID: existing.ID, Action: ActionUpdated, Pages: pages}, nil
	}

	url, err := p.backend.CreateComment(ctx, threadID, body)
	if err != nil {
		return Result{}, &RemoteError{Op: OpCreateComment, Err: err}
	}
	p.logger.Info("comment created", "thread", threadID, "url", url)
	return Result{URL: url, Action: ActionCreated, Pages: pages}, nil
}

// Find scans threadID page by page for the first live comment authored by the viewer
// that carries fingerprint. It stops at the first match and returns nil when the stream
// ends without one, together with the number of pages fetched.
func (p *Publisher) Find(ctx context.Context, threadID, fingerprint string) (*Comment, int, error) {
	if fingerprint == "" {
		return nil, 0, marker.ErrEmptyContext
	}

	var cursor string
	pages := 0
	for {
		page, err := p.backend.FetchCommentsPage(ctx, threadID, cursor)
		if err != nil {
			return nil, pages, &RemoteError{Op: OpFetchComments, Err: err}
		}
		pages++
		p.logger.Debug("comments page fetched",
			"thread", threadID,
			"page", pages,
			"comments", len(page.Comments),
			"hasNextPage", page.HasNextPage,
		)

		for i := range page.Comments {
			c := page.Comments[i]
			if owned(c, fingerprint) {
				p.logger.Debug("existing comment found", "thread", threadID, "comment", c.ID, "page", pages)
				return &c, pages, nil
			}
		}

		if !page.HasNextPage {
			p.logger.Debug("no existing comment", "thread", threadID, "pages", pages)
			return nil, pages, nil
		}
		cursor = page.EndCursor
	}
}

// owned reports whether c is a visible comment written by the viewer for fingerprint.
func owned(c Comment, fingerprint string) bool {
	return c.ViewerDidAuthor && !c.IsMinimized && marker.Matches(c.Body, fingerprint)
}
