package main

import "github.com/spf13/cobra"

func (c *cli) snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"show"},
		Short:   "Print the cap table",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			return c.printSnapshot(cmd.Context(), s)
		},
	}
}
