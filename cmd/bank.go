package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/questiongen"
	"github.com/debreselam/schoolbot/internal/seed"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect and extend the quiz question bank",
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects and question counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("%-16s  %s\n", "Subject", "Questions")
		for _, s := range a.Bank.Subjects() {
			fmt.Printf("%-16s  %d\n", s, a.Bank.Size(s))
		}
		return nil
	},
}

var bankGenerateCmd = &cobra.Command{
	Use:   "generate <subject>",
	Short: "Generate questions with the configured LLM and print them as seed JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")
		subject := args[0]

		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := cfg.LLM.Validate(); err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}
		provider, err := a.Provider(ctx)
		if err != nil {
			return err
		}
		gen := questiongen.New(provider, questiongen.DefaultConfig())

		existing := make([]string, 0, a.Bank.Size(subject))
		for _, q := range a.Bank.Questions(subject) {
			existing = append(existing, q.Prompt)
		}
		qs, err := gen.Generate(ctx, subject, n, existing)
		if err != nil {
			return err
		}
		return seed.EncodeQuestions(os.Stdout, subject, qs)
	},
}

func init() {
	bankGenerateCmd.Flags().IntP("count", "n", 5, "Number of questions to generate")

	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankGenerateCmd)
}
