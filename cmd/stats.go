package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quiz attempt statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		st, err := s.AttemptLog().Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}
		if st.Count == 0 {
			fmt.Println("No quiz attempts recorded yet.")
			return nil
		}

		fmt.Printf("Attempts:         %d\n", st.Count)
		fmt.Printf("Mean percentage:  %.1f%%\n", st.MeanPercentage)
		fmt.Println()

		subjects := make([]string, 0, len(st.BySubject))
		for s := range st.BySubject {
			subjects = append(subjects, s)
		}
		sort.Strings(subjects)
		fmt.Printf("%-16s  %s\n", "Subject", "Attempts")
		for _, s := range subjects {
			fmt.Printf("%-16s  %d\n", s, st.BySubject[s])
		}
		return nil
	},
}
