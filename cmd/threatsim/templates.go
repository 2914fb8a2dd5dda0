package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/threatsim/threatsim/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List registered prompt templates",
	RunE:  listTemplates,
}

func listTemplates(cmd *cobra.Command, args []string) error {
	library := prompt.NewLibrary()
	if err := prompt.RegisterBuiltins(library); err != nil {
		return err
	}

	for _, ct := range library.List() {
		tmpl, err := library.Get(ct)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %s (%d variables)\n", ct, tmpl.Name, len(tmpl.Variables))
	}
	return nil
}
