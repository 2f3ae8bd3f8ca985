package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codex-k8s/werkschrift/internal/config"
	"github.com/codex-k8s/werkschrift/internal/githubapi"
	"github.com/codex-k8s/werkschrift/internal/marker"
	"github.com/codex-k8s/werkschrift/internal/publisher"
)

// session bundles the remote client and publisher built from config and env.
type session struct {
	cfg       *config.Config
	codec     marker.Codec
	client    *githubapi.Client
	publisher *publisher.Publisher
}

// newSession loads credentials and picks the GraphQL transport for repo.
func newSession(ctx context.Context, logger *slog.Logger, cfg *config.Config, repo string) (*session, error) {
	envCfg := remoteEnv{}
	if err := parseEnv(&envCfg); err != nil {
		return nil, err
	}

	transport := cfg.Transport
	if envPresent("WERKSCHRIFT_TRANSPORT") {
		transport = config.Transport(strings.TrimSpace(envCfg.Transport))
	}
	if transport == "" {
		transport = config.TransportAPI
	}
	graphQLURL := firstNonEmpty(envCfg.GraphQLURL, cfg.GraphQLURL, githubapi.DefaultGraphQLURL)
	apiURL := firstNonEmpty(envCfg.APIURL, cfg.APIURL)
	if repo == "" {
		repo = cfg.Repository
	}

	token, err := lookupGitHubToken(ctx, logger, repo, apiURL)
	if err != nil {
		return nil, err
	}

	var runner githubapi.Runner
	switch transport {
	case config.TransportAPI:
		runner = githubapi.NewAPIRunner(nil, token, graphQLURL)
	case config.TransportGH:
		runner = githubapi.NewCLIRunner(logger, token)
	default:
		return nil, fmt.Errorf("unknown transport %q, expected %q or %q", transport, config.TransportAPI, config.TransportGH)
	}
	logger.Debug("github transport selected", "transport", transport, "endpoint", graphQLURL)

	codec := marker.New(cfg.Tag)
	client := githubapi.NewClient(logger, runner)
	if logger.Enabled(ctx, slog.LevelDebug) {
		// Only comments written by this identity are ever updated.
		if login, err := client.Viewer(ctx); err != nil {
			logger.Debug("github viewer lookup failed", "error", err)
		} else {
			logger.Debug("github viewer", "login", login)
		}
	}
	return &session{
		cfg:       cfg,
		codec:     codec,
		client:    client,
		publisher: publisher.New(logger, client, codec),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
