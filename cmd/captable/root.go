package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xraph/captable/equity"
)

// cli carries what every subcommand needs once flags and config are read.
type cli struct {
	out        io.Writer
	errOut     io.Writer
	configFile string
	v          *viper.Viper
	logger     *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "captable",
		Short: "Edit a cap table with proportional dilution",
		Long: `captable keeps a company's ownership in a YAML file. Adding a holder
dilutes everyone else proportionally; removing one redistributes the stake
over the rest. Stakes always add up to exactly 100.00.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadConfig(cmd.Flags(), c.configFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(c.errOut, v.GetString(cfgKeyLogLevel))
			if err != nil {
				return err
			}
			c.v, c.logger = v, logger
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default: ./captable.yaml or ~/.captable/captable.yaml)")
	pf.StringP("file", "f", defaultTableFile, "cap-table file")
	pf.String("account", defaultAccount, "account id for a file that does not name one")
	pf.BoolP("write", "w", false, "save the result back to the cap-table file")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.snapshotCmd(),
		c.addCmd(),
		c.removeCmd(),
		c.setCmd(),
		c.reconcileCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) (*session, error) {
	return openSession(ctx, c.v.GetString(cfgKeyFile), c.v.GetString(cfgKeyAccount), c.logger)
}

// commit prints the resulting table and saves it when --write is set.
func (c *cli) commit(ctx context.Context, s *session) error {
	if err := c.printSnapshot(ctx, s); err != nil {
		return err
	}
	if !c.v.GetBool(cfgKeyWrite) {
		fmt.Fprintln(c.errOut, "dry run: pass --write to save", s.path)
		return nil
	}
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	c.logger.Info("cap table saved", "file", s.path, "account_id", s.account)
	return nil
}

func (c *cli) printSnapshot(ctx context.Context, s *session) error {
	snap, err := s.engine.Snapshot(ctx, s.account)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tEQUITY")
	for _, e := range snap.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Ref, e.Name, e.Category, e.Equity)
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\n", snap.Total)
	if !snap.Unallocated.IsZero() {
		fmt.Fprintf(tw, "\t\tUNALLOCATED\t%s\n", snap.Unallocated)
	}
	return tw.Flush()
}

func (c *cli) printChanges(changes []equity.Change) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBEFORE\tAFTER")
	for _, ch := range changes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ch.Name, ch.Before, ch.After)
	}
	return tw.Flush()
}
