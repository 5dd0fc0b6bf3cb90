package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KAsare1/Postly-server/cmd/utils"
	"github.com/KAsare1/Postly-server/db"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables and media directories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := db.Migrate(e.db, e.log); err != nil {
				return fmt.Errorf("migration error: %w", err)
			}
			dir := filepath.Join(e.cfg.MediaRoot, utils.ImageDir)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("could not create directory %s: %w", dir, err)
			}
			e.log.Infof("Directory %s created/verified", dir)
			return nil
		},
	}
}

func newClearDBCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-db",
		Short: "Drop every application table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd, "Are you sure you want to clear the database? (yes/no): ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Database clearing cancelled.")
				return nil
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := db.DropAll(e.db, e.log); err != nil {
				return fmt.Errorf("error clearing database: %w", err)
			}
			e.log.Info("Database cleared successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer)) == "yes"
}
