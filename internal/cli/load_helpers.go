package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/werkschrift/internal/config"
	"github.com/codex-k8s/werkschrift/internal/env"
	"github.com/codex-k8s/werkschrift/internal/marker"
)

// loadConfig loads the config file; the default path may be absent.
func loadConfig(opts *Options) (*config.Config, error) {
	inlineVars, err := env.ParseInlineVars(opts.Vars)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath, config.LoadOptions{
		UserVars: inlineVars,
		Optional: opts.ConfigPath == config.DefaultPath,
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveContext picks the marker context: --context, then WERKSCHRIFT_CONTEXT, then the
// config file, then workflow/jobid from the Actions environment.
func resolveContext(cmd *cobra.Command, logger *slog.Logger, cfg *config.Config, codec marker.Codec, flagValue string) (marker.Context, error) {
	envCfg := contextEnv{}
	if err := parseEnv(&envCfg); err != nil {
		return nil, err
	}

	var (
		attrs  marker.Context
		source string
	)
	switch {
	case cmd.Flags().Changed("context"):
		parsed, err := contextFromInline(flagValue)
		if err != nil {
			return nil, fmt.Errorf("parse --context: %w", err)
		}
		attrs, source = parsed, "flag"
	case envPresent("WERKSCHRIFT_CONTEXT"):
		parsed, err := contextFromInline(envCfg.Context)
		if err != nil {
			return nil, fmt.Errorf("parse WERKSCHRIFT_CONTEXT: %w", err)
		}
		attrs, source = parsed, "env"
	case cfg != nil && len(cfg.Context.Context) > 0:
		attrs, source = cfg.Context.Context, "config"
	default:
		attrs, source = defaultContext(envCfg), "actions"
	}

	if skipped := codec.Skipped(attrs); len(skipped) > 0 {
		logger.Warn("context attributes without string values are left out of the marker", "attributes", skipped)
	}
	logger.Debug("marker context resolved", "source", source, "attributes", len(attrs))
	return attrs, nil
}

func contextFromInline(s string) (marker.Context, error) {
	pairs, err := env.ParseInlinePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(marker.Context, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, marker.Attribute{Name: p.Key, Value: p.Value})
	}
	return out, nil
}

// defaultContext builds workflow/jobid from GITHUB_WORKFLOW and GITHUB_JOB, skipping blanks.
func defaultContext(envCfg contextEnv) marker.Context {
	var out marker.Context
	if envCfg.Workflow != "" {
		out = append(out, marker.Attribute{Name: "workflow", Value: envCfg.Workflow})
	}
	if envCfg.Job != "" {
		out = append(out, marker.Attribute{Name: "jobid", Value: envCfg.Job})
	}
	return out
}
