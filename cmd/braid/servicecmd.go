package main

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the app lifecycle to the service manager interface.
type program struct {
	configPath string
	cancel     context.CancelFunc
	done       chan error
}

// Start implements service.Interface. Service managers expect it to
// return promptly, so the app runs in a goroutine.
func (p *program) Start(_ service.Service) error {
	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() { p.done <- a.run(ctx) }()
	return nil
}

// Stop implements service.Interface.
func (p *program) Stop(_ service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return <-p.done
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service [install|uninstall|start|stop|run]",
		Short:     "Manage braid as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "braid",
				DisplayName: "Braid",
				Description: "Context budget engine for local LLMs",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			svc, err := service.New(&program{configPath: cfgPath}, svcConfig)
			if err != nil {
				return fmt.Errorf("service setup: %w", err)
			}

			switch args[0] {
			case "install":
				if err := svc.Install(); err != nil {
					return fmt.Errorf("service install: %w", err)
				}
				fmt.Println("Service installed.")
			case "uninstall":
				if err := svc.Uninstall(); err != nil {
					return fmt.Errorf("service uninstall: %w", err)
				}
				fmt.Println("Service uninstalled.")
			case "start":
				if err := svc.Start(); err != nil {
					return fmt.Errorf("service start: %w", err)
				}
				fmt.Println("Service started.")
			case "stop":
				if err := svc.Stop(); err != nil {
					return fmt.Errorf("service stop: %w", err)
				}
				fmt.Println("Service stopped.")
			case "run":
				// Blocks under the service manager (or in the foreground
				// when invoked interactively).
				return svc.Run()
			}
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
