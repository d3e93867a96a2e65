package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stoik/mailview/services/mail-service/internal/db"
	"github.com/stoik/mailview/services/mail-service/internal/users"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create database tables",
	Long:  "Creates the tables used by the login flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		pool, err := db.Connect(ctx, viper.GetString("database.url"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		fmt.Println("Running migrations...")
		if err := db.Migrate(ctx, pool, users.Schema); err != nil {
			return err
		}

		fmt.Println("✓ Database setup complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
