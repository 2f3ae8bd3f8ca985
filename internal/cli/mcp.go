package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/codex-k8s/werkschrift/internal/marker"
	"github.com/codex-k8s/werkschrift/internal/publisher"
)

const (
	mcpServerName    = "werkschrift"
	mcpServerVersion = "v1.0.0"
)

// newMCPCommand creates "mcp" that serves publish and find as MCP tools over stdio.
func newMCPCommand(opts *Options) *cobra.Command {
	var (
		thread     threadFlags
		contextArg string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve comment upsert and lookup as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			eventPath, err := thread.applyEnv(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if thread.Repo == "" {
				thread.Repo = cfg.Repository
			}
			sess, err := newSession(cmd.Context(), logger, cfg, thread.Repo)
			if err != nil {
				return err
			}
			attrs, err := resolveContext(cmd, logger, cfg, sess.codec, contextArg)
			if err != nil {
				return err
			}

			tools := &mcpTools{
				logger:         logger,
				publisher:      sess.publisher,
				codec:          sess.codec,
				defaultContext: attrs,
			}
			// Tools may still pass thread_id when no default thread is known.
			if id, err := resolveThreadID(cmd.Context(), logger, sess.client, thread, eventPath); err == nil {
				tools.defaultThread = id
			} else {
				logger.Debug("mcp server has no default thread", "error", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting mcp server on stdio", "thread", tools.defaultThread)
			if err := newMCPServer(tools).Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			logger.Info("mcp server stopped")
			return nil
		},
	}

	addThreadFlags(cmd, &thread)
	addContextFlag(cmd, &contextArg)

	return cmd
}

func newMCPServer(tools *mcpTools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    mcpServerName,
		Version: mcpServerVersion,
	}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "upsert_comment",
		Description: "Create or update the status comment for a job context on a pull request or issue",
	}, tools.handleUpsert)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_comment",
		Description: "Find the status comment for a job context on a pull request or issue",
	}, tools.handleFind)
	return server
}

// contextParam is one marker attribute passed by an MCP client.
type contextParam struct {
	Name  string `json:"name" jsonschema:"Attribute name"`
	Value string `json:"value" jsonschema:"Attribute value"`
}

// upsertParams are the inputs of upsert_comment.
type upsertParams struct {
	ThreadID string         `json:"thread_id,omitempty" jsonschema:"GraphQL node id of the pull request or issue; defaults to the server's thread"`
	Summary  string         `json:"summary" jsonschema:"Markdown body shown above the hidden marker"`
	Context  []contextParam `json:"context,omitempty" jsonschema:"Ordered marker attributes; defaults to the server's context"`
}

// findParams are the inputs of find_comment.
type findParams struct {
	ThreadID string         `json:"thread_id,omitempty" jsonschema:"GraphQL node id of the pull request or issue; defaults to the server's thread"`
	Context  []contextParam `json:"context,omitempty" jsonschema:"Ordered marker attributes; defaults to the server's context"`
}

// mcpTools holds what the tool handlers share.
type mcpTools struct {
	logger         *slog.Logger
	publisher      *publisher.Publisher
	codec          marker.Codec
	defaultThread  string
	defaultContext marker.Context
}

func (t *mcpTools) handleUpsert(ctx context.Context, _ *mcp.CallToolRequest, params upsertParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Summary) == "" {
		return nil, nil, fmt.Errorf("summary parameter is required")
	}
	threadID, attrs, err := t.target(params.ThreadID, params.Context)
	if err != nil {
		return nil, nil, err
	}

	res, err := t.publisher.PublishResult(ctx, threadID, attrs, params.Summary)
	if err != nil {
		return t.failure("upsert_comment", threadID, err)
	}
	return jsonResult(map[string]any{
		"url":        res.URL,
		"comment_id": res.CommentID,
		"action":     res.Action,
		"pages":      res.Pages,
	})
}

func (t *mcpTools) handleFind(ctx context.Context, _ *mcp.CallToolRequest, params findParams) (*mcp.CallToolResult, any, error) {
	threadID, attrs, err := t.target(params.ThreadID, params.Context)
	if err != nil {
		return nil, nil, err
	}
	fingerprint, err := t.codec.Encode(attrs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode comment marker: %w", err)
	}

	comment, pages, err := t.publisher.Find(ctx, threadID, fingerprint)
	if err != nil {
		return t.failure("find_comment", threadID, err)
	}
	if comment == nil {
		return jsonResult(map[string]any{"found": false, "pages": pages})
	}
	return jsonResult(map[string]any{
		"found":      true,
		"comment_id": comment.ID,
		"url":        comment.URL,
		"pages":      pages,
	})
}

// failure reports GitHub failures as tool results and rejects invalid input as call errors.
func (t *mcpTools) failure(tool, threadID string, err error) (*mcp.CallToolResult, any, error) {
	if !publisher.IsRemoteError(err) {
		return nil, nil, err
	}
	t.logger.Error(tool+" failed", "thread", threadID, "error", err)
	return errorResult(err), nil, nil
}

// target applies server defaults to a tool call's thread and context.
func (t *mcpTools) target(threadID string, params []contextParam) (string, marker.Context, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		threadID = t.defaultThread
	}
	if threadID == "" {
		return "", nil, fmt.Errorf("thread_id parameter is required")
	}
	if len(params) == 0 {
		return threadID, t.defaultContext, nil
	}
	attrs := make(marker.Context, 0, len(params))
	for _, p := range params {
		attrs = append(attrs, marker.Attribute{Name: p.Name, Value: p.Value})
	}
	return threadID, attrs, nil
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
		IsError: true,
	}
}
