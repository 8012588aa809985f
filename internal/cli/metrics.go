package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imyousuf/slotgraph/internal/metrics"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show degree, weight and occupancy metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			calc := metrics.NewCompositeCalculator()
			result, err := calc.Calculate(s.graph)
			if err != nil {
				return fmt.Errorf("calculate metrics: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Metrics for %s\n", s.path)
			fmt.Fprintf(out, "%s\n\n", strings.Repeat("=", 40))

			// Sort metric names for stable output.
			keys := make([]string, 0, len(result))
			for k := range result {
				keys = append(keys, string(k))
			}
			sort.Strings(keys)

			for _, k := range keys {
				v := result[metrics.MetricType(k)]
				// Display integer values without decimal for cleaner output.
				if v == float64(int64(v)) {
					fmt.Fprintf(out, "  %-25s %d\n", k, int64(v))
				} else {
					fmt.Fprintf(out, "  %-25s %.2f\n", k, v)
				}
			}

			return nil
		},
	}
}
