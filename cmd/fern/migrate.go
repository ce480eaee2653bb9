package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the element schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.context(cmd)
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			ms := database.NewMigrationService(a.logger, &database.MigrationConfig{
				MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
				Version:             uint(a.cfg.DatabaseMigrationVersion),
				Force:               a.cfg.DatabaseMigrationForce,
				AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
			})
			result, err := ms.MigratePostgres(db, a.cfg.DatabaseName)
			if err != nil {
				return err
			}

			if a.format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d -> %d (changed=%t, %s)\n",
				result.From, result.To, result.Changed, result.Duration)
			return err
		},
	}
}
