package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scribeflow/internal/flows"
)

func flowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flows",
		Short: "List the available flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFlows(cmd.OutOrStdout())
		},
	}
}

func listFlows(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, spec := range flows.Specs() {
		var required []string
		for _, f := range spec.Input.Fields {
			if f.Required {
				required = append(required, f.Name)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\n", spec.Name, spec.Description, required)
	}
	return tw.Flush()
}

func runCmd() *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "run <flow>",
		Short: "Run one flow against Gemini and print its JSON output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			in, err := readInput(inputPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			// Logs go to stderr so stdout stays machine readable.
			a, err := newApp(ctx, os.Stderr)
			if err != nil {
				return err
			}
			out, err := a.flows.Run(ctx, args[0], in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON input file, or - for stdin")
	return cmd
}

func readInput(path string, stdin io.Reader) (map[string]any, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var in map[string]any
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}
