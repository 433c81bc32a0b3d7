package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/odc-colab/internal/filelock"
	"github.com/harrison/odc-colab/internal/runner"
	"github.com/harrison/odc-colab/internal/successset"
)

// NewResetCommand creates the reset command
func NewResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget which notebooks already passed",
		Long: `Delete the success set so the next test run executes every notebook again.

Reports and run history are left untouched.`,
		Args: cobra.NoArgs,
		RunE: runReset,
	}

	cmd.Flags().String("success-set", "", "Success set file to clear (default: from config)")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.SuccessSet
	if cmd.Flags().Changed("success-set") {
		path, _ = cmd.Flags().GetString("success-set")
	}

	store := successset.NewStore(path)

	lock, err := filelock.Acquire(store.LockPath())
	if err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			return fmt.Errorf("%w (lock %s)", runner.ErrRunInProgress, store.LockPath())
		}
		return err
	}
	defer lock.Unlock()

	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared success set at %s\n", path)
	return nil
}
