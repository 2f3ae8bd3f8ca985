package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codex-k8s/werkschrift/internal/ghauth"
	"github.com/codex-k8s/werkschrift/internal/githubapi"
)

// lookupGitHubToken returns the first configured personal token, or an installation
// token minted from GitHub App credentials for repo.
func lookupGitHubToken(ctx context.Context, logger *slog.Logger, repo, apiURL string) (string, error) {
	envCfg := credentialsEnv{}
	if err := parseEnv(&envCfg); err != nil {
		return "", err
	}
	candidates := []string{envCfg.PAT, envCfg.GHToken, envCfg.GitHubToken}
	for _, v := range candidates {
		if strings.TrimSpace(v) != "" {
			return v, nil
		}
	}

	creds := ghauth.AppCredentials{
		AppID:          envCfg.AppID,
		PrivateKeyPEM:  []byte(envCfg.AppPrivateKey),
		InstallationID: envCfg.AppInstallationID,
	}
	if !creds.Configured() {
		return "", fmt.Errorf("GitHub token is required; set WERKSCHRIFT_GH_PAT or GH_TOKEN or GITHUB_TOKEN, or WERKSCHRIFT_APP_ID with WERKSCHRIFT_APP_PRIVATE_KEY")
	}
	owner, name, err := githubapi.SplitRepository(repo)
	if err != nil && creds.InstallationID == 0 {
		return "", fmt.Errorf("github app installation lookup needs a repository: %w", err)
	}

	token, expires, err := ghauth.NewTokenSource(creds, nil, apiURL).InstallationToken(ctx, owner, name)
	if err != nil {
		return "", err
	}
	logger.Debug("github app installation token issued", "app", creds.AppID, "expires", expires)
	return token, nil
}
