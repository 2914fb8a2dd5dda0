package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/threatsim/threatsim/internal/engine"
	"github.com/threatsim/threatsim/internal/scenario"
)

var runOutputPath string

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Execute a threat scenario",
	Long: `Load a scenario definition from YAML, execute every declared stage in
order, and print the simulation result as JSON. A failed stage stops the
run; stages committed before the failure are preserved in the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulation,
}

func init() {
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "write result JSON to file instead of stdout")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}

	source := scenario.NewFileSource()
	sc, err := source.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if sc.Parameters.Provider == "" {
		sc.Parameters.Provider = cfg.LLM.DefaultProvider
	}

	result, err := rt.engine.Execute(cmd.Context(), sc)
	if err != nil {
		return err
	}

	if err := writeResult(result); err != nil {
		return err
	}

	if result.Status == engine.StatusFailed {
		return fmt.Errorf("simulation failed: %s", result.Error)
	}
	return nil
}

func writeResult(result *engine.SimulationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if runOutputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(runOutputPath, data, 0o644)
}
