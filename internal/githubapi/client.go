// Package githubapi reads and writes pull request and issue comments over GitHub GraphQL.
package githubapi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codex-k8s/werkschrift/internal/publisher"
)

// CommentsPageSize is the number of comments requested per page.
const CommentsPageSize = 100

var threadCommentsQuery = fmt.Sprintf(`query($id: ID!, $after: String) {
  node(id: $id) {
    __typename
    ... on PullRequest {
      comments(first: %[1]d, after: $after) {
        nodes { id isMinimized viewerDidAuthor body url }
        pageInfo { hasNextPage endCursor }
      }
    }
    ... on Issue {
      comments(first: %[1]d, after: $after) {
        nodes { id isMinimized viewerDidAuthor body url }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`, CommentsPageSize)

const addCommentMutation = `mutation($subjectId: ID!, $body: String!) {
  addComment(input: {subjectId: $subjectId, body: $body}) {
    commentEdge { node { id url } }
  }
}`

const updateCommentMutation = `mutation($id: ID!, $body: String!) {
  updateIssueComment(input: {id: $id, body: $body}) {
    issueComment { id url }
  }
}`

const viewerQuery = `query { viewer { login } }`

// Client implements publisher.Backend on top of a GraphQL Runner.
type Client struct {
	logger *slog.Logger
	runner Runner
}

var _ publisher.Backend = (*Client)(nil)

// NewClient constructs a Client. A nil logger discards log output.
func NewClient(logger *slog.Logger, runner Runner) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{logger: logger, runner: runner}
}

// SplitRepository splits an owner/repo slug.
func SplitRepository(repo string) (string, string, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return "", "", fmt.Errorf("repository is empty")
	}
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid repository slug %q, expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// FetchCommentsPage returns one page of comments on the pull request or issue threadID.
func (c *Client) FetchCommentsPage(ctx context.Context, threadID, cursor string) (publisher.Page, error) {
	if strings.TrimSpace(threadID) == "" {
		return publisher.Page{}, fmt.Errorf("thread id is empty")
	}

	resp := threadCommentsResponse{}
	vars := map[string]any{"id": threadID, "after": cursor}
	if err := c.runner.Run(ctx, threadCommentsQuery, vars, &resp); err != nil {
		return publisher.Page{}, err
	}
	if err := resp.err(); err != nil {
		return publisher.Page{}, err
	}

	node := resp.Data.Node
	if node == nil {
		return publisher.Page{}, fmt.Errorf("thread %s not found", threadID)
	}
	if node.Comments == nil {
		return publisher.Page{}, fmt.Errorf("thread %s is a %s, expected PullRequest or Issue", threadID, node.Typename)
	}
	info := node.Comments.PageInfo
	if info.HasNextPage && info.EndCursor == "" {
		return publisher.Page{}, fmt.Errorf("thread %s: next page reported without cursor", threadID)
	}

	page := publisher.Page{
		Comments:    make([]publisher.Comment, 0, len(node.Comments.Nodes)),
		EndCursor:   info.EndCursor,
		HasNextPage: info.HasNextPage,
	}
	for _, n := range node.Comments.Nodes {
		page.Comments = append(page.Comments, publisher.Comment{
			ID:              n.ID,
			ViewerDidAuthor: n.ViewerDidAuthor,
			IsMinimized:     n.IsMinimized,
			Body:            n.Body,
			URL:             strings.TrimSpace(n.URL),
		})
	}
	c.logger.Debug("thread comments response",
		"thread", threadID,
		"type", node.Typename,
		"comments", len(page.Comments),
		"endCursor", page.EndCursor,
		"hasNextPage", page.HasNextPage,
	)
	return page, nil
}

// CreateComment adds a comment with body to threadID.
func (c *Client) CreateComment(ctx context.Context, threadID, body string) (string, error) {
	resp := addCommentResponse{}
	vars := map[string]any{"subjectId": threadID, "body": body}
	if err := c.runner.Run(ctx, addCommentMutation, vars, &resp); err != nil {
		return "", err
	}
	if err := resp.err(); err != nil {
		return "", err
	}
	payload := resp.Data.AddComment
	if payload == nil || payload.CommentEdge == nil || payload.CommentEdge.Node == nil {
		return "", fmt.Errorf("addComment response for %s has no comment", threadID)
	}
	url := strings.TrimSpace(payload.CommentEdge.Node.URL)
	if url == "" {
		return "", fmt.Errorf("addComment response for %s has no url", threadID)
	}
	c.logger.Debug("addComment response", "thread", threadID, "comment", payload.CommentEdge.Node.ID, "url", url)
	return url, nil
}

// UpdateComment replaces the body of commentID.
func (c *Client) UpdateComment(ctx context.Context, commentID, body string) (string, error) {
	resp := updateCommentResponse{}
	vars := map[string]any{"id": commentID, "body": body}
	if err := c.runner.Run(ctx, updateCommentMutation, vars, &resp); err != nil {
		return "", err
	}
	if err := resp.err(); err != nil {
		return "", err
	}
	payload := resp.Data.UpdateIssueComment
	if payload == nil || payload.IssueComment == nil {
		return "", fmt.Errorf("updateIssueComment response for %s has no comment", commentID)
	}
	url := strings.TrimSpace(payload.IssueComment.URL)
	if url == "" {
		return "", fmt.Errorf("updateIssueComment response for %s has no url", commentID)
	}
	c.logger.Debug("updateIssueComment response", "comment", commentID, "url", url)
	return url, nil
}

// ResolveThreadID looks up the GraphQL node id of a pull request or issue by number.
func (c *Client) ResolveThreadID(ctx context.Context, repo string, kind ThreadKind, number int) (string, error) {
	if number <= 0 {
		return "", fmt.Errorf("%s number must be positive", kind)
	}
	if err := kind.validate(); err != nil {
		return "", err
	}
	owner, name, err := SplitRepository(repo)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`query($owner: String!, $name: String!, $number: Int!) {
  repository(owner: $owner, name: $name) {
    %s(number: $number) { id }
  }
}`, kind)

	resp := threadIDResponse{}
	vars := map[string]any{"owner": owner, "name": name, "number": number}
	if err := c.runner.Run(ctx, query, vars, &resp); err != nil {
		return "", err
	}
	if err := resp.err(); err != nil {
		return "", err
	}
	r := resp.Data.Repository
	if r == nil {
		return "", fmt.Errorf("repository %s not found", repo)
	}
	var id string
	switch kind {
	case ThreadPullRequest:
		if r.PullRequest != nil {
			id = r.PullRequest.ID
		}
	case ThreadIssue:
		if r.Issue != nil {
			id = r.Issue.ID
		}
	}
	if id == "" {
		return "", fmt.Errorf("%s #%d not found in %s", kind, number, repo)
	}
	return id, nil
}

// Viewer returns the login of the authenticated identity.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	resp := viewerResponse{}
	if err := c.runner.Run(ctx, viewerQuery, nil, &resp); err != nil {
		return "", err
	}
	if err := resp.err(); err != nil {
		return "", err
	}
	return resp.Data.Viewer.Login, nil
}
