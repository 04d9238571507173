package main

import (
	"fmt"
	"os"

	"github.com/Burashka44/House-RentBot/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var dsn string

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema tool for the rent bot",
	}
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("DB_DSN"), "database DSN (postgres URL or sqlite path)")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply the schema to the target database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("no DSN given: set --dsn or DB_DSN")
			}
			if _, err := store.InitDB(dsn); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
	rootCmd.AddCommand(upCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
