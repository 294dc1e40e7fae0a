// Package cmd holds the socialctl cobra commands.
package cmd

import (
	"fmt"

	"socialfeed/internal/config"
	"socialfeed/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "socialctl",
	Short:         "Operate the social feed database",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// connect loads configuration and opens the primary database.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}
