package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// Deployment secrets may come from a .env file next to the binary.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "standup",
		Short: "Voice assistant skill that runs team standups",
		Long: `Standup is a webhook service for a voice/text dialog platform. It keeps a
team roster per user, cycles through speakers one per turn, records topics and
summarizes them when the standup ends. It can also list and close tickets in
GitHub or Yandex Tracker.`,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("standup v%s\n", version)
		},
	}
}
