package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCheckHealth bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured LLM providers",
	RunE:  listProviders,
}

func init() {
	providersCmd.Flags().BoolVar(&providersCheckHealth, "health", false, "probe each provider's health")
}

func listProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}

	names := rt.registry.List()
	if len(names) == 0 {
		fmt.Println("no providers configured")
		return nil
	}

	for _, name := range names {
		line := name
		if name == cfg.LLM.DefaultProvider {
			line += " (default)"
		}
		if providersCheckHealth {
			provider, err := rt.registry.Get(name)
			if err != nil {
				return err
			}
			status := provider.Health(cmd.Context())
			line += fmt.Sprintf("  [%s]", status.State)
			if status.Message != "" {
				line += " " + status.Message
			}
		}
		fmt.Println(line)
	}
	return nil
}
