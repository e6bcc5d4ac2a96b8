package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := store.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		reqs, err := s.LLMRequestLog().RecentLLMRequests(cmd.Context(), purpose, limit)
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		if len(reqs) == 0 {
			fmt.Println("No LLM requests found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-20s  %-28s  %-6s  %-6s  %-7s  %-9s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "Cost", "OK")
		fmt.Println(strings.Repeat("─", 112))

		var cost float64
		for _, r := range reqs {
			ok := "✓"
			if !r.Success {
				ok = "✗"
			}
			model := r.Model
			if len(model) > 28 {
				model = model[:28]
			}
			fmt.Printf("%-5d  %-19s  %-20s  %-28s  %-6d  %-6d  %-7d  $%-8.4f  %s\n",
				r.ID,
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Purpose,
				model,
				r.InputTokens,
				r.OutputTokens,
				r.LatencyMs,
				r.CostUSD,
				ok,
			)
			cost += r.CostUSD
		}
		fmt.Println(strings.Repeat("─", 112))
		fmt.Printf("%d requests, estimated cost $%.4f\n", len(reqs), cost)
		return nil
	},
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Maximum number of requests to show")
	llmListCmd.Flags().String("purpose", "", "Only show requests with this purpose")

	llmCmd.AddCommand(llmListCmd)
}
