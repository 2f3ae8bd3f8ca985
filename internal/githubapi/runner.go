package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/codex-k8s/werkschrift/internal/logging"
)

// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
const DefaultGraphQLURL = "https://api.github.com/graphql"

// Runner executes a GraphQL document and decodes the full response body into out.
type Runner interface {
	Run(ctx context.Context, query string, vars map[string]any, out any) error
}

// APIRunner posts GraphQL documents through a go-github client.
type APIRunner struct {
	client   *github.Client
	endpoint string
}

// NewAPIRunner builds an APIRunner. A nil httpClient uses http.DefaultClient;
// an empty endpoint uses DefaultGraphQLURL.
func NewAPIRunner(httpClient *http.Client, token, endpoint string) *APIRunner {
	client := github.NewClient(httpClient)
	if strings.TrimSpace(token) != "" {
		client = client.WithAuthToken(token)
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultGraphQLURL
	}
	return &APIRunner{client: client, endpoint: endpoint}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Run implements Runner.
func (r *APIRunner) Run(ctx context.Context, query string, vars map[string]any, out any) error {
	req, err := r.client.NewRequest(http.MethodPost, r.endpoint, graphQLRequest{
		Query:     query,
		Variables: compactVars(vars),
	})
	if err != nil {
		return fmt.Errorf("build github graphql request: %w", err)
	}
	if _, err := r.client.Do(ctx, req, out); err != nil {
		return fmt.Errorf("github graphql request failed: %w", err)
	}
	return nil
}

// CLIRunner runs GraphQL documents through `gh api graphql`.
type CLIRunner struct {
	logger *slog.Logger
	token  string
	// Binary is the gh executable; empty means "gh" from PATH.
	Binary string
}

// NewCLIRunner builds a CLIRunner authenticating gh with token.
func NewCLIRunner(logger *slog.Logger, token string) *CLIRunner {
	return &CLIRunner{logger: logger, token: token}
}

// Run implements Runner.
func (r *CLIRunner) Run(ctx context.Context, query string, vars map[string]any, out any) error {
	args := graphQLArgs(query, vars)
	if r.logger != nil {
		r.logger.Debug("github graphql query", "args", args[4:])
	}

	bin := r.Binary
	if bin == "" {
		bin = "gh"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	logw := logging.NewWriter(r.logger, "gh stderr")
	defer logw.Flush()
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(&stderr, logw)

	env := os.Environ()
	if r.token != "" {
		env = append(env, "GITHUB_TOKEN="+r.token, "GH_TOKEN="+r.token)
	}
	cmd.Env = env

	if err := cmd.Run(); err != nil {
		// gh prints GraphQL errors as JSON on stdout before exiting non-zero.
		if bytes.Contains(stdout.Bytes(), []byte(`"errors"`)) {
			if decodeErr := json.Unmarshal(stdout.Bytes(), out); decodeErr == nil {
				return nil
			}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("gh api graphql failed: %w", err)
		}
		return fmt.Errorf("gh api graphql failed: %w: %s", err, msg)
	}

	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("decode github graphql response: %w", err)
	}
	return nil
}

// graphQLArgs builds gh arguments; typed values use -F, strings use -f.
// Keys are sorted so the argument list is stable.
func graphQLArgs(query string, vars map[string]any) []string {
	args := []string{"api", "graphql", "-f", "query=" + query}
	vars = compactVars(vars)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := vars[key].(type) {
		case int, int32, int64, uint, uint32, uint64, float32, float64, bool:
			args = append(args, "-F", fmt.Sprintf("%s=%v", key, v))
		default:
			args = append(args, "-f", fmt.Sprintf("%s=%v", key, v))
		}
	}
	return args
}

// compactVars drops nil and empty-string variables so GraphQL sees them as null.
func compactVars(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for key, val := range vars {
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		out[key] = val
	}
	return out
}
