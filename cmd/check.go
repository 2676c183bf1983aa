package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/conmindriver/internal/driver"
	"github.com/cwbudde/conmindriver/internal/graph"
	"github.com/cwbudde/conmindriver/internal/store"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <problem.json>",
	Short: "Validate a problem description",
	Long: `Validates an optimization problem description and prints the kernel
array dimensions derived from it. No kernel binding is required.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read problem file: %w", err)
	}

	var config store.ProblemConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse problem file: %w", err)
	}

	d := driver.New(graph.NewTable())
	d.IPrint = config.IPrint
	if config.MaxIters > 0 {
		d.MaxIters = config.MaxIters
	}
	d.SetDesignVars(config.DesignVars...)
	d.SetObjective(config.Objective)
	d.SetConstraints(config.Constraints...)
	d.SetLowerBounds(config.LowerBounds...)
	d.SetUpperBounds(config.UpperBounds...)

	sizing, err := d.Check()
	if err != nil {
		return fmt.Errorf("problem description is invalid: %w", err)
	}

	fmt.Printf("Problem is valid.\n\n")
	fmt.Printf("Design variables:    %d\n", sizing.NDV)
	fmt.Printf("Constraints:         %d (+%d side constraints from bounds)\n", sizing.NCON, sizing.NSide)
	fmt.Printf("Design vector:       %d\n", sizing.N1)
	fmt.Printf("Constraint storage:  %d\n", sizing.N2)
	fmt.Printf("Active-set capacity: %d\n", sizing.N3)
	fmt.Printf("Gradient matrix:     %d x %d\n", sizing.N1, sizing.N3)
	fmt.Printf("Scratch:             %d x %d matrix, %d vector, %d index slots\n",
		sizing.N3, sizing.N3, sizing.N4, sizing.N5)

	return nil
}
