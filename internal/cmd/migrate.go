package cmd

import (
	"capriccio/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [command] [args...]",
	Short: "Run database schema migrations",
	Long: `Run a goose command against the embedded schema migrations.

Supported commands include up, up-by-one, up-to VERSION, down, down-to VERSION,
redo, reset, status and version. Defaults to up.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	return database.Migrate(cmd.Context(), e.pool, e.logger, command, args...)
}
