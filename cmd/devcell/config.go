// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"devcell/internal/config"

	"github.com/spf13/cobra"
)

var (
	configInitForce bool

	// configCmd groups configuration subcommands
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the devcell configuration",
	}

	// configShowCmd prints the effective configuration
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE:  runConfigShow,
	}

	// configInitCmd writes a config file with the built-in defaults
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a config file populated with the defaults",
		RunE:  runConfigInit,
	}
)

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out, err := cfg.MarshalTOML()
	if err != nil {
		return err
	}

	path, _ := config.ConfigFilePath()
	fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("# effective configuration ("+path+")"))
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := config.WriteDefault(configInitForce)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", SuccessStyle.Render("✓"), path)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Next steps:"))
	fmt.Fprintln(cmd.OutOrStdout(), "  1. Edit the file to change the container name, engine, or base image")
	fmt.Fprintln(cmd.OutOrStdout(), "  2. Run 'devcell provision' to apply it")
	return nil
}
