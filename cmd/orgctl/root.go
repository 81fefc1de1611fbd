package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"organigrama/internal/config"
	"organigrama/internal/db"
)

type globalFlags struct {
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "orgctl",
		Short:        "Operate the organigrama service from the command line",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newMigrateCmd(flags),
		newTreeCmd(flags),
		newExpandCmd(flags),
		newHashPasswordCmd(),
	)
	return cmd
}

func (f *globalFlags) logger() *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// connect loads the configuration and opens the database. The returned
// cleanup closes the connection pool.
func (f *globalFlags) connect() (config.Config, *gorm.DB, func(), error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	database, err := db.Connect(cfg, f.logger())
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return cfg, database, cleanup, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
