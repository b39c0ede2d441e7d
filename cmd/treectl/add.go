package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"labeltree/application/commands"
	"labeltree/domain/core/aggregates"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Append a node, as a root or under --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parent *string
			if cmd.Flags().Changed("parent") {
				parent = &parentID
			}
			return runAdd(cmd, opts, args[0], parent)
		},
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent node id")
	return cmd
}

func runAdd(cmd *cobra.Command, opts *globalOptions, label string, parentID *string) error {
	container, cleanup, err := openContainer(cmd, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := container.CommandBus.Send(cmd.Context(), commands.CreateNodeCommand{
		Label:    label,
		ParentID: parentID,
	})
	if err != nil {
		return err
	}
	node, ok := result.(*aggregates.TreeNode)
	if !ok {
		return fmt.Errorf("unexpected create node result %T", result)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		return printJSON(out, node)
	}
	fmt.Fprintln(out, node.ID)
	return nil
}
