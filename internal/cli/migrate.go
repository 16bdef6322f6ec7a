package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCmd applies the Postgres migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			return migrate(cmd.Context(), cfg.Postgres.URL)
		},
	}
}
