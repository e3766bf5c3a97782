package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/debug"
	"github.com/steveyegge/redline/internal/export"
	"github.com/steveyegge/redline/internal/importer"
	"github.com/steveyegge/redline/internal/seed"
	"github.com/steveyegge/redline/internal/ui"
)

func (a *app) newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "data",
		Short:   "Export the whole database as a JSON snapshot",
		Long: `Export every user, project, issue, time entry and comment as one JSON
document. The snapshot can be restored with 'rl import'.

Examples:
  rl export > backup.json
  rl export -o backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := export.Build(cmd.Context(), a.store, a.clock)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if output == "" || output == "-" {
				return export.Encode(a.stdout, snap)
			}
			if err := export.WriteFile(output, snap); err != nil {
				return err
			}
			counts := snap.Data.Counts()
			if a.jsonOutput {
				a.outputJSON(map[string]any{"path": output, "counts": counts})
				return nil
			}
			a.printf("%s Exported %s to %s\n", ui.RenderPassIcon(), summarizeCounts(counts), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// summarizeCounts renders table counts in snapshot order.
func summarizeCounts(counts map[string]int) string {
	parts := []string{
		plural(counts["users"], "user"),
		plural(counts["projects"], "project"),
		plural(counts["issues"], "issue"),
		plural(counts["timeEntries"], "time entry"),
		plural(counts["comments"], "comment"),
	}
	return strings.Join(parts, ", ")
}

// readSnapshotInput reads path, or stdin for "" and "-". An interactive
// stdin is refused.
func (a *app) readSnapshotInput(path string) ([]byte, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied path
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		return data, nil
	}
	if a.stdinIsTTY() {
		return nil, withHint(errors.New("no snapshot given"), "pass -i <file> or pipe a snapshot on stdin")
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("read snapshot from stdin: %w", err)
	}
	return data, nil
}

func (a *app) newImportCmd() *cobra.Command {
	var input string
	var dryRun, lenient, force bool
	cmd := &cobra.Command{
		Use:     "import",
		GroupID: "data",
		Short:   "Replace the whole database with a JSON snapshot",
		Long: `Replace every record in the database with the contents of a snapshot.

The snapshot is checked first: its version, the five tables, the required
fields of every record, and that every reference points at a record in the
same snapshot. Nothing is written unless all checks pass. The replace runs
in one transaction; if it fails, the previous data is kept.

Exit codes: 0 imported, 1 snapshot rejected, 2 write failed.

Examples:
  rl import -i backup.json
  rl import -i backup.json --dry-run
  cat backup.json | rl import --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readSnapshotInput(input)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lenient") {
				lenient = a.cfg.Import.Lenient
			}

			if !dryRun && !force {
				if input == "" || input == "-" {
					return withHint(errors.New("refusing to replace the database from stdin without confirmation"),
						"add --force, or pass the snapshot with -i")
				}
				if !a.confirm("This replaces ALL data in the database. Continue?") {
					fmt.Fprintln(a.stderr, "Import cancelled.")
					return &silentError{code: exitFailure}
				}
			}

			result, err := importer.Import(cmd.Context(), a.store, data, importer.Options{
				DryRun:  dryRun,
				Lenient: lenient,
				Logger:  debug.Logger(),
			})
			if err != nil {
				return err
			}
			if a.jsonOutput {
				a.outputJSON(result)
				return nil
			}
			counts := map[string]int{
				"users": result.Users, "projects": result.Projects, "issues": result.Issues,
				"timeEntries": result.TimeEntries, "comments": result.Comments,
			}
			if result.DryRun {
				a.printf("%s Snapshot is valid; would import %s\n", ui.RenderInfoIcon(), summarizeCounts(counts))
				return nil
			}
			a.printf("%s Imported %s in %s\n", ui.RenderPassIcon(), summarizeCounts(counts), result.Duration.Round(time.Millisecond))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "Snapshot file (default: stdin)")
	f.BoolVar(&dryRun, "dry-run", false, "Check the snapshot without writing")
	f.BoolVar(&lenient, "lenient", false, "Accept comments and trailing commas (JSONC)")
	f.BoolVarP(&force, "force", "f", false, "Replace without asking")
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	var input string
	var lenient bool
	cmd := &cobra.Command{
		Use:         "validate",
		GroupID:     "data",
		Short:       "Check a JSON snapshot without importing it",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readSnapshotInput(input)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lenient") {
				lenient = a.cfg.Import.Lenient
			}

			result := validateSnapshot(data, lenient)
			if a.jsonOutput {
				a.outputJSON(result)
			} else if result.Valid {
				a.printf("%s Snapshot is valid\n", ui.RenderPassIcon())
			} else {
				fmt.Fprintf(a.stdout, "%s Invalid snapshot: %s\n", ui.RenderFailIcon(), result.Error)
			}
			if !result.Valid {
				return &silentError{code: exitFailure}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Snapshot file (default: stdin)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Accept comments and trailing commas (JSONC)")
	return cmd
}

// validateSnapshot runs the same checks as import, including decoding into
// typed records.
func validateSnapshot(data []byte, lenient bool) export.ValidationResult {
	raw, err := export.DecodeRaw(data, lenient)
	if err != nil {
		return export.ValidationResult{Error: err.Error()}
	}
	if result := export.ValidateExportData(raw); !result.Valid {
		return result
	}
	if _, err := export.Decode(data, lenient); err != nil {
		return export.ValidationResult{Error: err.Error()}
	}
	return export.ValidationResult{Valid: true}
}

func (a *app) newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "seed",
		GroupID: "data",
		Short:   "Create users and projects from a TOML seed file",
		Long: `Create users and projects from a TOML seed file. Users whose email and
projects whose identifier already exist are skipped, so a seed file can be
applied more than once.

Example seed.toml:

  [[users]]
  email = "ann@example.com"
  first_name = "Ann"
  last_name = "Lee"
  role = "admin"

  [[projects]]
  name = "Website"
  identifier = "web"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(file)
			if err != nil {
				return err
			}
			result, err := seed.Apply(cmd.Context(), a.store, f, a.ids, a.clock)
			if err != nil {
				var rerr *seed.RecordError
				if errors.As(err, &rerr) {
					return &formError{kind: fmt.Sprintf("%s at index %d", rerr.Kind, rerr.Index), fields: rerr.Fields}
				}
				return err
			}
			if a.jsonOutput {
				a.outputJSON(result)
				return nil
			}
			a.printf("%s Seeded %s and %s (skipped %d existing)\n", ui.RenderPassIcon(),
				plural(result.UsersCreated, "user"), plural(result.ProjectsCreated, "project"),
				result.UsersSkipped+result.ProjectsSkipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed file (TOML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
