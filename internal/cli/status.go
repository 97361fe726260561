package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tillworks/till/internal/pricing"
	"github.com/tillworks/till/internal/recovery"
)

// NewStatusCommand reports the persisted cart and its recovery
// classification: fresh, recovered (needs keep-or-discard confirmation), or
// discarded (too old, replaced with an empty cart).
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted cart and its recovery state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			mgr := recovery.NewManager(s, nil, slog.Default())
			c, state := mgr.Load()
			pr := pricing.Compute(c, cfg.Tax, cfg.Loyalty, 0)

			out := struct {
				State         string         `json:"state"`
				Lines         int            `json:"lines"`
				LastMutatedAt string         `json:"last_mutated_at,omitempty"`
				Pricing       pricing.Result `json:"pricing"`
			}{
				State:   state.String(),
				Lines:   len(c.Lines),
				Pricing: pr,
			}
			if !c.LastMutatedAt.IsZero() {
				out.LastMutatedAt = c.LastMutatedAt.Format("2006-01-02 15:04:05")
			}

			return writeOutput(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) {
				fmt.Fprintf(w, "cart state:    %s\n", out.State)
				fmt.Fprintf(w, "lines:         %d\n", out.Lines)
				if out.LastMutatedAt != "" {
					fmt.Fprintf(w, "last mutation: %s\n", out.LastMutatedAt)
				}
				fmt.Fprintf(w, "subtotal:      %s\n", pr.Subtotal)
				fmt.Fprintf(w, "total:         %s\n", pr.Total)
			})
		},
	}
}
