package cli

import (
	"log"

	"github.com/spf13/cobra"

	"travelpro-gamification/internal/config"
	pgstore "travelpro-gamification/internal/infra/postgres"
)

// NewSeedCmd installs the badge catalog and sample content.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the badge catalog and sample quiz data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := pgstore.Seed(cmd.Context(), db); err != nil {
				return err
			}
			log.Printf("seed data installed")
			return nil
		},
	}
}
