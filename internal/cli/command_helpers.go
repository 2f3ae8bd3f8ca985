package cli

import (
	"github.com/spf13/cobra"
)

// threadFlags identify the pull request or issue a command works on.
type threadFlags struct {
	ThreadID string
	PR       int
	Issue    int
	Repo     string
}

func addThreadFlags(cmd *cobra.Command, f *threadFlags) {
	cmd.Flags().StringVar(&f.ThreadID, "thread-id", "", "GraphQL node id of the pull request or issue")
	cmd.Flags().IntVar(&f.PR, "pr", 0, "Pull request number (resolved against --repo)")
	cmd.Flags().IntVar(&f.Issue, "issue", 0, "Issue number (resolved against --repo)")
	cmd.Flags().StringVar(&f.Repo, "repo", "", "Repository slug owner/repo (defaults to GITHUB_REPOSITORY or config)")
	cmd.MarkFlagsMutuallyExclusive("thread-id", "pr", "issue")
}

// applyEnv fills unset thread flags from env and returns the Actions event payload path.
func (f *threadFlags) applyEnv(cmd *cobra.Command) (string, error) {
	envCfg := threadEnv{}
	if err := parseEnv(&envCfg); err != nil {
		return "", err
	}
	explicit := cmd.Flags().Changed("thread-id") || cmd.Flags().Changed("pr") || cmd.Flags().Changed("issue")
	if !explicit {
		switch {
		case envPresent("WERKSCHRIFT_THREAD_ID"):
			f.ThreadID = envCfg.ThreadID
		case envPresent("WERKSCHRIFT_PR_NUMBER"):
			f.PR = envCfg.PR
		case envPresent("WERKSCHRIFT_ISSUE_NUMBER"):
			f.Issue = envCfg.Issue
		}
	}
	if !cmd.Flags().Changed("repo") && envPresent("GITHUB_REPOSITORY") {
		f.Repo = envCfg.Repository
	}
	return envCfg.EventPath, nil
}

func addContextFlag(cmd *cobra.Command, value *string) {
	cmd.Flags().StringVar(value, "context", "", "Marker context in k=v,k2=v2 format (overrides config context)")
}
