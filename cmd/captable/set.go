package main

import (
	"github.com/spf13/cobra"

	"github.com/xraph/captable/types"
)

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id|name> <equity>",
		Short: "Re-price a holder's stake",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := types.ParsePercent(args[1])
			if err != nil {
				return err
			}
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			holderID, err := s.holder(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := s.engine.SetEquity(ctx, s.account, holderID, p); err != nil {
				return err
			}
			return c.commit(ctx, s)
		},
	}
}
