package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/conmindriver/internal/store"
	"github.com/spf13/cobra"
)

var checkpointDataDir string

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Manage driver checkpoints",
	Long: `Manage saved driver checkpoints. A checkpoint holds a driver's problem
description and current design values, so a run can be rebuilt later.`,
}

var listCheckpointsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available checkpoints",
	RunE:  runListCheckpoints,
}

var deleteCheckpointCmd = &cobra.Command{
	Use:   "delete <driver-id>",
	Short: "Delete a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteCheckpoint,
}

func init() {
	rootCmd.AddCommand(checkpointsCmd)
	checkpointsCmd.AddCommand(listCheckpointsCmd)
	checkpointsCmd.AddCommand(deleteCheckpointCmd)

	checkpointsCmd.PersistentFlags().StringVar(&checkpointDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
}

func runListCheckpoints(cmd *cobra.Command, args []string) error {
	checkpointStore, err := store.NewFSStore(checkpointDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No checkpoints found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DRIVER ID\tTIMESTAMP\tITERATION\tOBJECTIVE")
	fmt.Fprintln(w, "---------\t---------\t---------\t---------")

	for _, info := range infos {
		displayID := info.DriverID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%.6g\n",
			displayID,
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Iteration,
			info.Objective,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal checkpoints: %d\n", len(infos))
	return nil
}

func runDeleteCheckpoint(cmd *cobra.Command, args []string) error {
	checkpointStore, err := store.NewFSStore(checkpointDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	driverID := args[0]
	if err := checkpointStore.DeleteCheckpoint(driverID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	fmt.Printf("Deleted checkpoint %s\n", driverID)
	return nil
}
