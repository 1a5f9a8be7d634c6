package main

import (
	"github.com/spf13/cobra"

	"github.com/xraph/captable/id"
)

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|name>",
		Aliases: []string{"rm"},
		Short:   "Remove a holder and redistribute their stake",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			holderID, err := s.holder(ctx, args[0])
			if err != nil {
				return err
			}

			if holderID.Prefix() == id.PrefixInvestor {
				_, err = s.engine.RemoveInvestor(ctx, s.account, holderID)
			} else {
				_, err = s.engine.RemoveMember(ctx, s.account, holderID)
			}
			if err != nil {
				return err
			}
			return c.commit(ctx, s)
		},
	}
}
