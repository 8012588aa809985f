package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show arena occupancy for the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			st := s.graph.Stats()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Graph Status\n")
			fmt.Fprintf(out, "============\n\n")
			fmt.Fprintf(out, "  Snapshot:    %s\n", s.path)
			if !s.existed {
				fmt.Fprintf(out, "               (not written yet)\n")
			}
			fmt.Fprintf(out, "  Shape:       %d-bit ids, %s fan-out\n", s.graph.Width(), s.graph.Strategy())
			fmt.Fprintf(out, "  Entries:     %d\n", st.Entries)
			fmt.Fprintf(out, "  Slots:       %d\n", st.Slots)
			fmt.Fprintf(out, "  Empty slots: %d\n", len(st.EmptySlots))
			if len(st.EmptySlots) > 0 {
				fmt.Fprintf(out, "  Next reused: %d\n", st.EmptySlots[len(st.EmptySlots)-1])
			}
			return nil
		},
	}
}
