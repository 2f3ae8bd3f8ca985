package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/werkschrift/internal/ghoutput"
)

// newFindCommand creates "find" that looks up the status comment without writing.
func newFindCommand(opts *Options) *cobra.Command {
	var (
		thread     threadFlags
		contextArg string
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the id and URL of the status comment for this job, if any",
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
			fingerprint, err := sess.codec.Encode(attrs)
			if err != nil {
				return fmt.Errorf("encode comment marker: %w", err)
			}
			threadID, err := resolveThreadID(cmd.Context(), logger, sess.client, thread, eventPath)
			if err != nil {
				return err
			}

			comment, pages, err := sess.publisher.Find(cmd.Context(), threadID, fingerprint)
			if err != nil {
				return err
			}
			if comment == nil {
				logger.Info("comment not found", "thread", threadID, "pages", pages)
				return ghoutput.Write(map[string]string{"comment-found": "false"})
			}

			if err := ghoutput.Write(map[string]string{
				"comment-found": "true",
				"comment-id":    comment.ID,
				"comment-url":   comment.URL,
			}); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", comment.ID, comment.URL)
			return err
		},
	}

	addThreadFlags(cmd, &thread)
	addContextFlag(cmd, &contextArg)

	return cmd
}
