package main

import (
	"github.com/spf13/cobra"

	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/types"
)

func (c *cli) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a holder, diluting everyone else proportionally",
	}
	cmd.AddCommand(c.addMemberCmd(), c.addInvestorCmd())
	return cmd
}

func (c *cli) addMemberCmd() *cobra.Command {
	var title, email, role, pct string

	cmd := &cobra.Command{
		Use:   "member <name>",
		Short: "Add a founder or team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.ParsePercent(pct)
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := s.engine.AddMember(cmd.Context(), s.account, &member.Member{
				Name:   args[0],
				Title:  title,
				Email:  email,
				Role:   member.Role(role),
				Equity: p,
			}); err != nil {
				return err
			}
			return c.commit(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVar(&pct, "equity", "", "stake to grant, e.g. 12.5")
	cmd.Flags().StringVar(&role, "role", string(member.RoleTeam), "founder or team")
	cmd.Flags().StringVar(&title, "title", "", "job title")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("equity")
	return cmd
}

func (c *cli) addInvestorCmd() *cobra.Command {
	var firm, invested, currency, pct string

	cmd := &cobra.Command{
		Use:   "investor <name>",
		Short: "Add an investor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.ParsePercent(pct)
			if err != nil {
				return err
			}
			inv := &investor.Investor{
				Name:   args[0],
				Firm:   firm,
				Equity: p,
			}
			if invested != "" {
				if inv.Invested, err = types.ParseMoney(invested, currency); err != nil {
					return err
				}
			}

			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := s.engine.AddInvestor(cmd.Context(), s.account, inv); err != nil {
				return err
			}
			return c.commit(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVar(&pct, "equity", "", "stake bought, e.g. 20")
	cmd.Flags().StringVar(&firm, "firm", "", "investing firm")
	cmd.Flags().StringVar(&invested, "invested", "", "amount invested in major units, e.g. 500000")
	cmd.Flags().StringVar(&currency, "currency", "usd", "currency of --invested")
	_ = cmd.MarkFlagRequired("equity")
	return cmd
}
