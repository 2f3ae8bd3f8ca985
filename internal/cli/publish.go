package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/werkschrift/internal/ghoutput"
	"github.com/codex-k8s/werkschrift/internal/publisher"
)

// newPublishCommand creates "publish" that upserts the status comment for the job context.
func newPublishCommand(opts *Options) *cobra.Command {
	var (
		thread      threadFlags
		summaryFile string
		contextArg  string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Create or update the status comment for this job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			envCfg := publishEnv{}
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("summary-file") && envPresent("WERKSCHRIFT_SUMMARY_FILE") {
				summaryFile = envCfg.SummaryFile
			}
			if strings.TrimSpace(summaryFile) == "" {
				return fmt.Errorf("publish requires --summary-file or WERKSCHRIFT_SUMMARY_FILE env")
			}
			summary, err := readSummary(cmd.InOrStdin(), summaryFile)
			if err != nil {
				return err
			}
			if strings.TrimSpace(summary) == "" {
				return fmt.Errorf("summary %q is empty", summaryFile)
			}

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
			threadID, err := resolveThreadID(cmd.Context(), logger, sess.client, thread, eventPath)
			if err != nil {
				return err
			}

			res, err := sess.publisher.PublishResult(cmd.Context(), threadID, attrs, summary)
			if err != nil {
				return err
			}

			if err := ghoutput.Write(publishOutputs(res)); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			return err
		},
	}

	addThreadFlags(cmd, &thread)
	addContextFlag(cmd, &contextArg)
	cmd.Flags().StringVar(&summaryFile, "summary-file", "", "Markdown summary to publish, or - for stdin")

	return cmd
}

// readSummary reads the comment summary from path, or from stdin when path is "-".
func readSummary(stdin io.Reader, path string) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read summary %q: %w", path, err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func publishOutputs(res publisher.Result) map[string]string {
	return map[string]string{
		"comment-url":    res.URL,
		"comment-id":     res.CommentID,
		"comment-action": string(res.Action),
	}
}
