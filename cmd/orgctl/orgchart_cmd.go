package main

import (
	"github.com/spf13/cobra"

	"organigrama/internal/config"
	"organigrama/internal/repository"
	"organigrama/internal/service"
)

func newTreeCmd(flags *globalFlags) *cobra.Command {
	var area, status string

	cmd := &cobra.Command{
		Use:   "root",
		Short: "Print the supreme boss and the area bosses as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := newOrgChartService(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			root, err := svc.BuildRoot(cmd.Context(), service.RootQuery{Area: area, Status: status})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), root)
		},
	}

	cmd.Flags().StringVar(&area, "area", "", "Area tag or name (empty or todos for every area)")
	cmd.Flags().StringVar(&status, "estado", "", "Employment status (default Activo, todos disables the filter)")
	return cmd
}

func newExpandCmd(flags *globalFlags) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "expand <dni|section-id>",
		Short: "Print a node and its direct children as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := newOrgChartService(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			expansion, err := svc.Expand(cmd.Context(), service.ExpandQuery{ID: args[0], Status: status})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), expansion)
		},
	}

	cmd.Flags().StringVar(&status, "estado", "", "Employment status (default Activo, todos disables the filter)")
	return cmd
}

func newOrgChartService(flags *globalFlags) (*service.OrgChartService, func(), error) {
	cfg, database, cleanup, err := flags.connect()
	if err != nil {
		return nil, nil, err
	}

	chart, err := config.LoadOrgChart(cfg.OrgChartPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc := service.NewOrgChartService(repository.NewEmployeeRepository(database), chart, flags.logger())
	return svc, cleanup, nil
}
