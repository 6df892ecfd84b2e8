package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage genex configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		if err := config.GenerateTemplate(args[0]); err != nil {
			return fmt.Errorf("config init: %w", err)
		}
		fmt.Printf("wrote config template to %s\n", args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		loaded, err := config.Load(args[0], nil)
		if err != nil {
			return fmt.Errorf("config validate: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("config validate: %w", err)
		}
		fmt.Println("config is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
