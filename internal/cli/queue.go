package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tillworks/till/internal/offline"
)

// NewQueueCommand groups operations on the offline sale queue. Listing is
// the reconciliation collaborator's read surface; remove acknowledges a
// replayed sale.
func NewQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the offline sale queue",
	}
	cmd.AddCommand(newQueueListCommand(opts))
	cmd.AddCommand(newQueueRemoveCommand(opts))
	return cmd
}

func newQueueListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued sales in enqueue order",
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

			q := offline.NewQueue(s, nil)
			sales, err := q.List()
			if err != nil {
				return WrapExitError(ExitCommandError, "list queued sales", err)
			}

			return writeOutput(cmd.OutOrStdout(), opts.Format, sales, func(w io.Writer) {
				if len(sales) == 0 {
					fmt.Fprintln(w, "offline queue is empty")
					return
				}
				for _, qs := range sales {
					fmt.Fprintf(w, "%s  enqueued %s  %d bytes\n",
						qs.ID, qs.EnqueuedAt.Format("2006-01-02 15:04:05"), len(qs.Payload))
				}
			})
		},
	}
}

func newQueueRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a queued sale after it has been reconciled",
		Args:  cobra.ExactArgs(1),
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

			q := offline.NewQueue(s, nil)
			if err := q.Remove(args[0]); err != nil {
				return WrapExitError(ExitCommandError, "remove queued sale", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
