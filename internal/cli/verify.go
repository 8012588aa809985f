package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every connection has a matching backward link",
		Long: `Load the snapshot and check the arena bookkeeping and the
forward/backward cross-reference: A connects to B exactly when B lists A as
a predecessor. Loading already rejects corrupt snapshots; verify also
reports the counts it checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.graph.Verify(); err != nil {
				return fmt.Errorf("verify %s: %w", s.path, err)
			}
			st := s.graph.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries in %d slots\n", st.Entries, st.Slots)
			return nil
		},
	}
}
