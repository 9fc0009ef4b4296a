package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "presence",
	Short: "Live face-recognition attendance service",
	Long: `Presence watches a camera, recognizes enrolled faces, and records
attendance once per person per day. The serve command runs the server;
the other commands talk to a running server over its HTTP API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9080", "Base URL of a running presence server")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
