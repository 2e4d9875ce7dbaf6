package main

import (
	"errors"
	"fmt"

	"xoso/internal/models"

	"github.com/spf13/cobra"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the results board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			lg, err := initLogger(cfg, cfg.Verbose)
			if err != nil {
				return err
			}
			defer lg.Close()

			service, _, err := newService(cfg)
			if err != nil {
				return err
			}
			results, err := service.Results()
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), service, results)
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <tier> <number>",
		Short: "Record one winning number",
		Long: `Records a winning number exactly as the web form does: tiers are filled
in order (consolation, third, second, first, special) and every number is
checked for format, duplicates and clashing last three digits.`,
		Example: "  xoso add consolation 528\n  xoso add third 1456",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := models.ParseTier(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			lg, err := initLogger(cfg, cfg.Verbose)
			if err != nil {
				return err
			}
			defer lg.Close()

			service, _, err := newService(cfg)
			if err != nil {
				return err
			}
			_, msg, err := service.Submit(tier, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase every recorded number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to erase results without --yes")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			lg, err := initLogger(cfg, cfg.Verbose)
			if err != nil {
				return err
			}
			defer lg.Close()

			service, store, err := newService(cfg)
			if err != nil {
				return err
			}
			if err := service.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing all results")
	return cmd
}
