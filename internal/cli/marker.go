package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/werkschrift/internal/marker"
)

// newMarkerCommand creates "marker" that prints the fingerprint for the resolved context.
func newMarkerCommand(opts *Options) *cobra.Command {
	var contextArg string

	cmd := &cobra.Command{
		Use:   "marker",
		Short: "Print the hidden comment marker for this job context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			codec := marker.New(cfg.Tag)
			attrs, err := resolveContext(cmd, logger, cfg, codec, contextArg)
			if err != nil {
				return err
			}
			fingerprint, err := codec.Encode(attrs)
			if err != nil {
				return fmt.Errorf("encode comment marker: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fingerprint)
			return err
		},
	}

	addContextFlag(cmd, &contextArg)

	return cmd
}
