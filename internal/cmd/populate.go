package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/odc-colab/internal/dbconf"
	"github.com/harrison/odc-colab/internal/executor"
)

// NewPopulateCommand creates the populate-db command. A nil runner executes
// psql on the host.
func NewPopulateCommand(runner executor.CommandRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate-db <archive>",
		Short: "Load an ODC database dump into PostgreSQL",
		Long: `Extract a tar archive (optionally gzip or bzip2 compressed) holding an
SQL dump, then load the dump with psql.

The SQL file name is the archive name with every extension removed, so
odc_db.sql.tar.gz must contain a file named odc_db.

Examples:
  odc-colab populate-db odc_db.sql.tar.gz
  odc-colab populate-db --db datacube --dest /tmp/dump odc_db.tar.bz2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				runner = executor.NewExecCommandRunner()
			}
			return runPopulate(cmd, args, runner)
		},
	}

	cmd.Flags().String("db", dbconf.DefaultDBName, "Database to load the dump into")
	cmd.Flags().String("dest", ".", "Directory to extract the archive into")

	return cmd
}

func runPopulate(cmd *cobra.Command, args []string, runner executor.CommandRunner) error {
	out := cmd.OutOrStdout()
	db, _ := cmd.Flags().GetString("db")
	dest, _ := cmd.Flags().GetString("dest")

	fmt.Fprintf(out, "Extracting %s into %s...\n", args[0], dest)
	sqlFile, err := dbconf.Populate(cmd.Context(), runner, args[0], dest, db)
	if err != nil {
		return fmt.Errorf("failed to populate database: %w", err)
	}
	fmt.Fprintf(out, "Loaded %s into database %s\n", sqlFile, db)
	return nil
}
