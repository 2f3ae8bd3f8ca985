package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/codex-k8s/werkschrift/internal/githubapi"
)

// threadResolver maps a pull request or issue number to its GraphQL node id.
type threadResolver interface {
	ResolveThreadID(ctx context.Context, repo string, kind githubapi.ThreadKind, number int) (string, error)
}

// actionsEvent holds the parts of a GitHub Actions event payload that name a thread.
type actionsEvent struct {
	PullRequest *github.PullRequest `json:"pull_request,omitempty"`
	Issue       *github.Issue       `json:"issue,omitempty"`
}

// resolveThreadID returns the node id named by flags, by a number lookup, or by the event payload.
func resolveThreadID(ctx context.Context, logger *slog.Logger, resolver threadResolver, f threadFlags, eventPath string) (string, error) {
	if id := strings.TrimSpace(f.ThreadID); id != "" {
		return id, nil
	}

	kind, number := githubapi.ThreadPullRequest, f.PR
	if f.Issue > 0 {
		kind, number = githubapi.ThreadIssue, f.Issue
	}
	if number > 0 {
		if strings.TrimSpace(f.Repo) == "" {
			return "", fmt.Errorf("resolving %s #%d requires --repo or GITHUB_REPOSITORY", kind, number)
		}
		id, err := resolver.ResolveThreadID(ctx, f.Repo, kind, number)
		if err != nil {
			return "", fmt.Errorf("resolve %s #%d in %s: %w", kind, number, f.Repo, err)
		}
		logger.Debug("thread resolved by number", "kind", kind, "number", number, "thread", id)
		return id, nil
	}

	if strings.TrimSpace(eventPath) != "" {
		id, err := threadIDFromEvent(eventPath)
		if err != nil {
			return "", err
		}
		if id != "" {
			logger.Debug("thread resolved from event payload", "path", eventPath, "thread", id)
			return id, nil
		}
	}
	return "", fmt.Errorf("no thread given; set --thread-id, --pr or --issue, or run from a pull_request or issue event")
}

// threadIDFromEvent reads the pull request or issue node id from an Actions event file.
func threadIDFromEvent(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read event payload %q: %w", path, err)
	}
	var ev actionsEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "", fmt.Errorf("decode event payload %q: %w", path, err)
	}
	if id := ev.PullRequest.GetNodeID(); id != "" {
		return id, nil
	}
	return ev.Issue.GetNodeID(), nil
}
