package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/engine"
)

func newEdgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Set, remove and list connections",
	}
	cmd.AddCommand(newEdgeSetCmd())
	cmd.AddCommand(newEdgeRemoveCmd())
	cmd.AddCommand(newEdgeListCmd())
	return cmd
}

func newEdgeSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <from> <to> <weight>",
		Short:             "Create or update the connection from -> to",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeNodeIDs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parsePair(args)
			if err != nil {
				return err
			}
			w, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid weight %q", args[2])
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.graph.SetEdge(a, b, w); err != nil {
				return fmt.Errorf("set edge: %w", err)
			}
			return s.save(cmd.Context())
		},
	}
}

func newEdgeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <from> <to>",
		Short:             "Remove the connection from -> to if it exists",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeNodeIDs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parsePair(args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.graph.RemoveEdge(a, b); err != nil {
				return fmt.Errorf("remove edge: %w", err)
			}
			return s.save(cmd.Context())
		},
	}
}

func newEdgeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "list <id>",
		Short:             "List a node's outgoing and incoming connections",
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
			if err != nil {
				return fmt.Errorf("list edges: %w", err)
			}
			printEdges(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func parsePair(args []string) (uint64, uint64, error) {
	a, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := parseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// printEdges lists connections sorted by node id. Storage order is not
// stable across removals, so it is never shown.
func printEdges(out io.Writer, v engine.NodeView) {
	edges := slices.SortedFunc(slices.Values(v.Out), func(x, y engine.Edge) int {
		return cmp.Compare(x.Target, y.Target)
	})
	fmt.Fprintf(out, "  Outgoing (%d):\n", len(edges))
	for _, e := range edges {
		fmt.Fprintf(out, "    -> %d  weight=%g\n", e.Target, e.Weight)
	}
	in := slices.Sorted(slices.Values(v.In))
	fmt.Fprintf(out, "  Incoming (%d):\n", len(in))
	for _, src := range in {
		fmt.Fprintf(out, "    <- %d\n", src)
	}
}
