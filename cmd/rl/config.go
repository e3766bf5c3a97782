package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/config"
	"github.com/steveyegge/redline/internal/debug"
	"github.com/steveyegge/redline/internal/storage/factory"
	"github.com/steveyegge/redline/internal/ui"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		GroupID:     "setup",
		Short:       "Create or inspect the configuration",
		Annotations: map[string]string{skipStore: "true"},
	}
	cmd.AddCommand(a.newConfigInitCmd(), a.newConfigShowCmd())
	return cmd
}

func (a *app) newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long: `Write a commented default config file, ` + config.DefaultConfigPath + ` unless a path
is given. An existing file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		// The file named by --config may not exist yet, so skip loading it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug.SetQuiet(a.quiet)
			ui.ConfigureColor()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath
			if len(args) == 1 {
				path = args[0]
			} else if a.configPath != "" {
				path = a.configPath
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			if a.jsonOutput {
				a.outputJSON(map[string]string{"path": path})
				return nil
			}
			a.printf("%s Wrote %s\n", ui.RenderPassIcon(), path)
			return nil
		},
	}
}

func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after applying the config file, RL_* environment
variables and command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *a.cfg
			if shown.Storage.MySQL.Password != "" {
				shown.Storage.MySQL.Password = "********"
			}
			if a.jsonOutput {
				a.outputJSON(map[string]any{
					"file":     a.cfg.FileUsed(),
					"backends": factory.Backends(),
					"config":   shown,
				})
				return nil
			}
			body, err := shown.Marshal()
			if err != nil {
				return err
			}
			source := a.cfg.FileUsed()
			if source == "" {
				source = "(built-in defaults)"
			}
			fmt.Fprintf(a.stdout, "# source: %s\n", source)
			if err := a.cfg.Validate(); err != nil {
				fmt.Fprintf(a.stdout, "# %s %v\n", ui.RenderWarnIcon(), err)
			}
			_, err = a.stdout.Write(body)
			return err
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			if a.jsonOutput {
				a.outputJSON(map[string]string{"version": Version, "build": Build})
				return
			}
			fmt.Fprintf(a.stdout, "rl version %s (%s)\n", Version, Build)
		},
	}
}
