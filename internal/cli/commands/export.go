package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// exportOptions holds options for the export command.
type exportOptions struct {
	force bool
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <directory>",
		Short: "Write the resolved scripts to a directory",
		Long: `Write every topic's script, resolved for the selected target's
dialect, into a directory as plain .sql files.

The files are numbered in run order so they can be pasted into a
database client or source control in sequence, without sqlbook.`,
		Example: `  # Export the DuckDB rendition
  sqlbook export ./sql

  # Export the SQL Server rendition
  sqlbook export ./sql-mssql --target mssql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite existing files")

	return cmd
}

func runExport(cmd *cobra.Command, dir string, opts *exportOptions) error {
	cmdCtx, err := NewCommandContextWithoutRunner(cmd)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	dialect := cmdCtx.Dialect()

	scripts, err := cmdCtx.Catalog.Scripts(dialect)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	for i, sc := range scripts {
		name := fmt.Sprintf("%02d_%s.sql", i+1, sc.Topic.Name)
		path := filepath.Join(dir, name)

		if _, err := os.Stat(path); err == nil && !opts.force {
			return fmt.Errorf("%s already exists. Use --force to overwrite", path)
		}

		if err := os.WriteFile(path, []byte(sc.Source), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		variant := "shared"
		if !sc.Shared {
			variant = sc.Dialect
		}
		r.StatusLine(name, "success", fmt.Sprintf("[%d stmts, %s]", len(sc.Statements), variant))
	}

	r.Println("")
	r.Success(fmt.Sprintf("Exported %d scripts for %s to %s", len(scripts), dialect, dir))
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run the files in numbered order in your database client")
	r.Println("  2. Or run them here: sqlbook run")

	return nil
}
