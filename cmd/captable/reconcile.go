package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Force the stakes back onto the allocated total",
		Long: `reconcile rescales every stake in proportion so the table adds up to
its allocated total again (100.00 unless the file sets "allocated"), then
fixes any rounding residual. Use it after editing the file by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			changes, err := s.engine.Recalculate(ctx, s.account)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Fprintln(c.out, "cap table is already exact")
				return nil
			}
			if err := c.printChanges(changes); err != nil {
				return err
			}
			fmt.Fprintln(c.out)
			return c.commit(ctx, s)
		},
	}
}
