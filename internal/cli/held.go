package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tillworks/till/internal/held"
)

// NewHeldCommand groups operations on parked carts.
func NewHeldCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "held",
		Short: "Inspect and manage parked carts",
	}
	cmd.AddCommand(newHeldListCommand(opts))
	cmd.AddCommand(newHeldDeleteCommand(opts))
	return cmd
}

func newHeldListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List parked carts in hold order",
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

			reg := held.NewRegistry(s, nil, nil)
			carts, err := reg.List()
			if err != nil {
				return WrapExitError(ExitCommandError, "list held carts", err)
			}

			return writeOutput(cmd.OutOrStdout(), opts.Format, carts, func(w io.Writer) {
				if len(carts) == 0 {
					fmt.Fprintln(w, "no held carts")
					return
				}
				for _, h := range carts {
					fmt.Fprintf(w, "%s  %-20s  %d lines  held %s\n",
						h.ID, h.Name, len(h.Lines), h.CreatedAt.Format("2006-01-02 15:04:05"))
				}
			})
		},
	}
}

func newHeldDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a parked cart",
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

			reg := held.NewRegistry(s, nil, nil)
			if err := reg.Delete(args[0]); err != nil {
				if errors.Is(err, held.ErrNotHeld) {
					return NewExitError(ExitFailure, fmt.Sprintf("no held cart %s", args[0]))
				}
				return WrapExitError(ExitCommandError, "delete held cart", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
