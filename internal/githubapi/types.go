// Package githubapi provides minimal GitHub API models for GraphQL responses.
package githubapi

import (
	"fmt"
	"strings"
)

// GraphQLError reports errors returned in a GraphQL response body.
type GraphQLError struct {
	// Messages holds the message of every reported error.
	Messages []string
	// Types holds the GitHub error type of every reported error, e.g. NOT_FOUND.
	Types []string
}

func (e *GraphQLError) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return "github graphql error"
	}
	return "github graphql error: " + strings.Join(e.Messages, "; ")
}

// HasType reports whether any of the errors has the given GitHub error type.
func (e *GraphQLError) HasType(kind string) bool {
	if e == nil {
		return false
	}
	for _, t := range e.Types {
		if t == kind {
			return true
		}
	}
	return false
}

type gqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// errorList is embedded in every response so GraphQL errors decode alongside data.
type errorList struct {
	Errors []gqlError `json:"errors"`
}

func (l errorList) err() error {
	if len(l.Errors) == 0 {
		return nil
	}
	out := &GraphQLError{}
	for _, e := range l.Errors {
		out.Messages = append(out.Messages, e.Message)
		out.Types = append(out.Types, e.Type)
	}
	return out
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type commentNode struct {
	ID              string `json:"id"`
	Body            string `json:"body"`
	URL             string `json:"url"`
	IsMinimized     bool   `json:"isMinimized"`
	ViewerDidAuthor bool   `json:"viewerDidAuthor"`
}

type commentConnection struct {
	Nodes    []commentNode `json:"nodes"`
	PageInfo pageInfo      `json:"pageInfo"`
}

type threadCommentsResponse struct {
	errorList
	Data struct {
		Node *struct {
			Typename string             `json:"__typename"`
			Comments *commentConnection `json:"comments"`
		} `json:"node"`
	} `json:"data"`
}

type addCommentResponse struct {
	errorList
	Data struct {
		AddComment *struct {
			CommentEdge *struct {
				Node *struct {
					ID  string `json:"id"`
					URL string `json:"url"`
				} `json:"node"`
			} `json:"commentEdge"`
		} `json:"addComment"`
	} `json:"data"`
}

type updateCommentResponse struct {
	errorList
	Data struct {
		UpdateIssueComment *struct {
			IssueComment *struct {
				ID  string `json:"id"`
				URL string `json:"url"`
			} `json:"issueComment"`
		} `json:"updateIssueComment"`
	} `json:"data"`
}

type threadIDResponse struct {
	errorList
	Data struct {
		Repository *struct {
			PullRequest *struct {
				ID string `json:"id"`
			} `json:"pullRequest"`
			Issue *struct {
				ID string `json:"id"`
			} `json:"issue"`
		} `json:"repository"`
	} `json:"data"`
}

type viewerResponse struct {
	errorList
	Data struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	} `json:"data"`
}

// ThreadKind selects the GraphQL object a thread number refers to.
type ThreadKind string

const (
	// ThreadPullRequest is a pull request conversation.
	ThreadPullRequest ThreadKind = "pullRequest"
	// ThreadIssue is an issue conversation.
	ThreadIssue ThreadKind = "issue"
)

func (k ThreadKind) validate() error {
	switch k {
	case ThreadPullRequest, ThreadIssue:
		return nil
	default:
		return fmt.Errorf("unknown thread kind %q", string(k))
	}
}
