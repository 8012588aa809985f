package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/engine"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Create, inspect, update and delete nodes",
	}
	cmd.AddCommand(newNodeCreateCmd())
	cmd.AddCommand(newNodeGetCmd())
	cmd.AddCommand(newNodeUpdateCmd())
	cmd.AddCommand(newNodeDeleteCmd())
	return cmd
}

func newNodeCreateCmd() *cobra.Command {
	var (
		label string
		props []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a node and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProps(props)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			id, err := s.graph.CreateNode(engine.Record{Label: label, Props: p})
			if err != nil {
				return fmt.Errorf("create node: %w", err)
			}
			if err := s.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "node label")
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "property as key=value (repeatable)")
	return cmd
}

func newNodeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <id>",
		Short:             "Show a node and its connections",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNodeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			v, err := s.graph.Node(id)
			if engine.IsNotFound(err) {
				return fmt.Errorf("node %d does not exist: %w", id, err)
			}
			if err != nil {
				return fmt.Errorf("get node: %w", err)
			}
			printNode(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newNodeUpdateCmd() *cobra.Command {
	var (
		label   string
		props   []string
		unset   []string
		replace bool
	)
	cmd := &cobra.Command{
		Use:               "update <id>",
		Short:             "Change a node's label or properties",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNodeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := parseProps(props)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			labelSet := cmd.Flags().Changed("label")
			err = s.graph.UpdateNode(id, func(r *engine.Record) {
				if labelSet {
					r.Label = label
				}
				if replace {
					r.Props = nil
				}
				for _, k := range unset {
					delete(r.Props, k)
				}
				if len(p) > 0 && r.Props == nil {
					r.Props = make(map[string]string, len(p))
				}
				maps.Copy(r.Props, p)
			})
			if err != nil {
				return fmt.Errorf("update node: %w", err)
			}
			return s.save(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "new label")
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "property to set as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "property key to remove (repeatable)")
	cmd.Flags().BoolVar(&replace, "replace", false, "drop existing properties before applying --prop")
	return cmd
}

func newNodeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>",
		Short:             "Delete a node and every connection touching it",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNodeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.graph.DeleteNode(id); err != nil {
				return fmt.Errorf("delete node: %w", err)
			}
			return s.save(cmd.Context())
		},
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", s)
	}
	return id, nil
}

func parseProps(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	props := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid property %q, want key=value", kv)
		}
		props[k] = v
	}
	return props, nil
}

func printNode(out io.Writer, v engine.NodeView) {
	fmt.Fprintf(out, "Node %d\n", v.ID)
	fmt.Fprintf(out, "  Label: %s\n", v.Record.Label)
	if len(v.Record.Props) > 0 {
		fmt.Fprintf(out, "  Properties:\n")
		for _, k := range slices.Sorted(maps.Keys(v.Record.Props)) {
			fmt.Fprintf(out, "    %s = %s\n", k, v.Record.Props[k])
		}
	}
	printEdges(out, v)
}
