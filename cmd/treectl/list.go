package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"labeltree/application/queries"
	"labeltree/domain/core/aggregates"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the whole forest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}
}

func runList(cmd *cobra.Command, opts *globalOptions) error {
	container, cleanup, err := openContainer(cmd, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := container.QueryBus.Ask(cmd.Context(), queries.ListForestQuery{})
	if err != nil {
		return err
	}
	forest, ok := result.([]*aggregates.TreeNode)
	if !ok {
		return fmt.Errorf("unexpected list forest result %T", result)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		return printJSON(out, forest)
	}

	printForest(out, forest)
	return nil
}

// printForest writes one indented line per node followed by a summary
func printForest(w io.Writer, forest []*aggregates.TreeNode) {
	aggregates.Walk(forest, func(node *aggregates.TreeNode, depth int) bool {
		fmt.Fprintf(w, "%s%s  (%s)\n", strings.Repeat("  ", depth), displayLabel(node.Label), node.ID)
		return true
	})

	stats := aggregates.Stats(forest)
	fmt.Fprintf(w, "%d nodes, %d roots, %d leaves, max depth %d\n",
		stats.Nodes, stats.Roots, stats.Leaves, stats.MaxDepth)
}

func displayLabel(label string) string {
	if label == "" {
		return `""`
	}
	return label
}
