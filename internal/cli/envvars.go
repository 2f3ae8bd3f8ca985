package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// rootEnv defines root CLI defaults sourced from WERKSCHRIFT_* env vars.
type rootEnv struct {
	// ConfigPath is the config file path from WERKSCHRIFT_CONFIG.
	ConfigPath string `env:"WERKSCHRIFT_CONFIG"`
	// Vars is a k=v,k2=v2 list from WERKSCHRIFT_VARS.
	Vars string `env:"WERKSCHRIFT_VARS"`
	// LogLevel is the logging level from WERKSCHRIFT_LOG_LEVEL.
	LogLevel string `env:"WERKSCHRIFT_LOG_LEVEL"`
}

// threadEnv captures inputs that identify the comment thread.
type threadEnv struct {
	// ThreadID is the GraphQL node id from WERKSCHRIFT_THREAD_ID.
	ThreadID string `env:"WERKSCHRIFT_THREAD_ID"`
	// PR is the pull request number from WERKSCHRIFT_PR_NUMBER.
	PR int `env:"WERKSCHRIFT_PR_NUMBER"`
	// Issue is the issue number from WERKSCHRIFT_ISSUE_NUMBER.
	Issue int `env:"WERKSCHRIFT_ISSUE_NUMBER"`
	// Repository is the owner/repo slug from GITHUB_REPOSITORY.
	Repository string `env:"GITHUB_REPOSITORY"`
	// EventPath is the Actions event payload from GITHUB_EVENT_PATH.
	EventPath string `env:"GITHUB_EVENT_PATH"`
}

// contextEnv captures marker context inputs.
type contextEnv struct {
	// Context is a k=v,k2=v2 list from WERKSCHRIFT_CONTEXT.
	Context string `env:"WERKSCHRIFT_CONTEXT"`
	// Workflow is the Actions workflow name from GITHUB_WORKFLOW.
	Workflow string `env:"GITHUB_WORKFLOW"`
	// Job is the Actions job id from GITHUB_JOB.
	Job string `env:"GITHUB_JOB"`
}

// remoteEnv captures transport and endpoint settings.
type remoteEnv struct {
	// Transport is api or gh from WERKSCHRIFT_TRANSPORT.
	Transport string `env:"WERKSCHRIFT_TRANSPORT"`
	// GraphQLURL is the GraphQL endpoint from GITHUB_GRAPHQL_URL.
	GraphQLURL string `env:"GITHUB_GRAPHQL_URL"`
	// APIURL is the REST endpoint from GITHUB_API_URL.
	APIURL string `env:"GITHUB_API_URL"`
}

// credentialsEnv captures token and GitHub App inputs.
type credentialsEnv struct {
	// PAT is a personal token from WERKSCHRIFT_GH_PAT.
	PAT string `env:"WERKSCHRIFT_GH_PAT"`
	// GHToken is the gh CLI token from GH_TOKEN.
	GHToken string `env:"GH_TOKEN"`
	// GitHubToken is the Actions token from GITHUB_TOKEN.
	GitHubToken string `env:"GITHUB_TOKEN"`
	// AppID is the GitHub App id from WERKSCHRIFT_APP_ID.
	AppID int64 `env:"WERKSCHRIFT_APP_ID"`
	// AppPrivateKey is the App PEM key from WERKSCHRIFT_APP_PRIVATE_KEY.
	AppPrivateKey string `env:"WERKSCHRIFT_APP_PRIVATE_KEY"`
	// AppInstallationID is the App installation from WERKSCHRIFT_APP_INSTALLATION_ID.
	AppInstallationID int64 `env:"WERKSCHRIFT_APP_INSTALLATION_ID"`
}

// publishEnv captures publish-only inputs.
type publishEnv struct {
	// SummaryFile is the summary path from WERKSCHRIFT_SUMMARY_FILE.
	SummaryFile string `env:"WERKSCHRIFT_SUMMARY_FILE"`
}

// parseEnv fills target from env vars via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}
