package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/braidhq/braid/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configInitCmd(), configCheckCmd())
	return cmd
}

// configInitCmd interactively writes a starter braid.yaml.
func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")

			cfg := &config.Config{Version: "1"}
			cfg.Server.Listen = "127.0.0.1:8321"
			cfg.Ollama.BaseURL = "http://localhost:11434"
			cfg.Store.Path = "data/braid.db"

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Listen address").
						Description("Bind address for the admin API").
						Value(&cfg.Server.Listen),
					huh.NewInput().
						Title("Ollama base URL").
						Value(&cfg.Ollama.BaseURL),
					huh.NewInput().
						Title("Auth token").
						Description("Leave empty to disable API auth").
						EchoMode(huh.EchoModePassword).
						Value(&cfg.Server.AuthToken),
					huh.NewInput().
						Title("Database path").
						Value(&cfg.Store.Path),
					huh.NewSelect[string]().
						Title("Log level").
						Options(
							huh.NewOption("info", "info"),
							huh.NewOption("debug", "debug"),
							huh.NewOption("warn", "warn"),
							huh.NewOption("error", "error"),
						).
						Value(&cfg.Log.Level),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("create config dir: %w", err)
				}
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Printf("Configuration written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "braid.yaml", "Output path")
	return cmd
}

// configCheckCmd validates a configuration file.
func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		},
	}
}
