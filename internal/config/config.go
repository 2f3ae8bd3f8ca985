// Package config contains the loader and model for .werkschrift.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/werkschrift/internal/env"
	"github.com/codex-k8s/werkschrift/internal/githubapi"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = ".werkschrift.yaml"

// Transport selects how GraphQL requests reach GitHub.
type Transport string

const (
	// TransportAPI posts requests with the go-github HTTP client.
	TransportAPI Transport = "api"
	// TransportGH shells out to `gh api graphql`.
	TransportGH Transport = "gh"
)

// Config is the parsed .werkschrift.yaml after template rendering.
type Config struct {
	// Repository is the owner/repo slug used to resolve thread numbers.
	Repository string `yaml:"repository,omitempty"`
	// Tag is the tool name written into comment markers.
	Tag string `yaml:"tag,omitempty"`
	// Transport selects the GraphQL transport (api or gh).
	Transport Transport `yaml:"transport,omitempty"`
	// GraphQLURL overrides the GraphQL endpoint, e.g. for GitHub Enterprise.
	GraphQLURL string `yaml:"graphqlURL,omitempty"`
	// APIURL overrides the REST endpoint used for GitHub App token exchange.
	APIURL string `yaml:"apiURL,omitempty"`
	// EnvFiles lists .env files loaded before rendering.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// Context holds the ordered marker attributes.
	Context Context `yaml:"context,omitempty"`
}

// LoadOptions control how the config file is located and rendered.
type LoadOptions struct {
	// UserVars are inline variables overriding env files and the OS environment.
	UserVars env.Vars
	// Optional tolerates a missing file and returns an empty Config.
	Optional bool
}

// TemplateContext is the data available to templates inside the config file.
type TemplateContext struct {
	// Env merges OS env, envFiles and user variables.
	Env env.Vars
	// ProjectRoot is the directory holding the config file.
	ProjectRoot string
}

// rawHeader is a minimal struct used to extract top-level fields before templating.
type rawHeader struct {
	EnvFiles []string `yaml:"envFiles"`
}

// Load reads path, loads its envFiles, renders it as a template over a TemplateContext
// and parses the result.
func Load(path string, opts LoadOptions) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	rawBytes, err := os.ReadFile(absPath)
	if err != nil {
		if opts.Optional && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %q: %w", absPath, err)
	}

	var header rawHeader
	if err := yaml.Unmarshal(rawBytes, &header); err != nil {
		return nil, fmt.Errorf("parse top-level config fields: %w", err)
	}

	baseDir := filepath.Dir(absPath)
	envFileVars, err := env.LoadEnvFiles(baseDir, header.EnvFiles)
	if err != nil {
		return nil, err
	}

	ctx := TemplateContext{
		Env:         env.Merge(env.FromOS(), envFileVars, opts.UserVars),
		ProjectRoot: baseDir,
	}

	rendered, err := RenderTemplate(filepath.Base(absPath), rawBytes, ctx)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(rendered, &cfg); err != nil {
		return nil, fmt.Errorf("parse rendered %s: %w", filepath.Base(absPath), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", absPath, err)
	}
	return &cfg, nil
}

// Validate checks field values that can be checked without network access.
func (c *Config) Validate() error {
	switch c.Transport {
	case "", TransportAPI, TransportGH:
	default:
		return fmt.Errorf("unknown transport %q, expected %q or %q", c.Transport, TransportAPI, TransportGH)
	}
	if c.Repository != "" {
		if _, _, err := githubapi.SplitRepository(c.Repository); err != nil {
			return err
		}
	}
	return nil
}
