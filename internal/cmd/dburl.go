package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/odc-colab/internal/dbconf"
)

// NewDBURLCommand creates the db-url command
func NewDBURLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db-url",
		Short: "Print a DATACUBE_DB_URL connection string",
		Long: `Build a connection string for a networked Open Data Cube database,
suitable for the DATACUBE_DB_URL environment variable.

Examples:
  odc-colab db-url --host db.example.com --user odc
  export DATACUBE_DB_URL=$(odc-colab db-url --host localhost --user odc --password secret)`,
		Args: cobra.NoArgs,
		RunE: runDBURL,
	}

	cmd.Flags().String("host", "", "Database hostname (required)")
	cmd.Flags().String("user", "", "Database user (required)")
	cmd.Flags().String("password", "", "Database password (omitted from the URL when not given)")
	cmd.Flags().String("db", dbconf.DefaultDBName, "Database name")
	cmd.Flags().Int("port", dbconf.DefaultPort, "Database port")

	return cmd
}

func runDBURL(cmd *cobra.Command, args []string) error {
	var opts dbconf.URLOptions
	opts.Host, _ = cmd.Flags().GetString("host")
	opts.User, _ = cmd.Flags().GetString("user")
	opts.DBName, _ = cmd.Flags().GetString("db")
	opts.Port, _ = cmd.Flags().GetInt("port")
	if cmd.Flags().Changed("password") {
		password, _ := cmd.Flags().GetString("password")
		opts.Password = &password
	}

	u, err := dbconf.BuildURL(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), u)
	return nil
}
