package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/config"
)

var (
	cfg config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "schoolbot",
	Short: "Sunday school assistant bot",
	Long:  "Schoolbot is a chat assistant for a Sunday school with role-based menus and subject quizzes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("env", nil, "Dotenv files to load (default .env)")
	flags.String("db", "", "SQLite DSN of the activity log (overrides SCHOOLBOT_DB)")
	flags.String("seed", "", "Path to a JSON seed file (overrides SCHOOLBOT_SEED)")
	flags.Int("quiz-size", 0, "Questions per quiz (overrides SCHOOLBOT_QUIZ_SIZE)")
	flags.String("log-level", "", "Log level (overrides SCHOOLBOT_LOG_LEVEL)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(telegramCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration from dotenv files and the environment,
// applies flag overrides, and sets up logging. Flags win over the
// environment.
func loadConfig(cmd *cobra.Command) error {
	envFiles, _ := cmd.Flags().GetStringSlice("env")
	c, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DB, _ = flags.GetString("db")
	}
	if flags.Changed("seed") {
		c.SeedPath, _ = flags.GetString("seed")
	}
	if flags.Changed("quiz-size") {
		c.QuizSize, _ = flags.GetInt("quiz-size")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}

	l, err := config.SetupLogging(os.Stderr, c.LogLevel, c.LogFormat)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	cfg, log = c, l
	return nil
}
