package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect scoring models",
	}

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a model YAML loads and satisfies its invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %s ok (%d prototypes)\n", m.Version, len(m.Prototypes))
			return nil
		},
	}

	var file string
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print a model as YAML (built-in model by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := loadModel(file)
			if err != nil {
				return err
			}
			out, err := m.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	dump.Flags().StringVar(&file, "file", "", "model YAML to load before dumping")

	cmd.AddCommand(validate, dump)
	return cmd
}
