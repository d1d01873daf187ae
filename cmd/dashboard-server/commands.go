package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivdash/hivdash/internal/domain/dashboard"
	"github.com/hivdash/hivdash/internal/domain/facility"
	"github.com/hivdash/hivdash/internal/domain/snapshot"
	"github.com/hivdash/hivdash/internal/domain/summary"
	"github.com/hivdash/hivdash/internal/platform/db"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/daterange"
)

// selection holds the location and period flags shared by the read commands.
type selection struct {
	locations string
	start     string
	end       string
	asJSON    bool
}

func (s *selection) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.locations, "locations", "", "Comma-separated location ids (empty selects all)")
	cmd.Flags().StringVar(&s.start, "start", "", "Period start, YYYY-MM-DD (default May 2025)")
	cmd.Flags().StringVar(&s.end, "end", "", "Period end, YYYY-MM-DD")
	cmd.Flags().BoolVar(&s.asJSON, "json", false, "Print JSON instead of a table")
}

func (s *selection) resolve() ([]string, daterange.Range, error) {
	r, err := daterange.ParseOrDefault(s.start, s.end)
	if err != nil {
		return nil, daterange.Range{}, err
	}
	return summary.LocationIDs(s.locations), r, nil
}

// withApp loads configuration, wires the services and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func facilitiesCmd() *cobra.Command {
	var county string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "facilities",
		Short: "Print facilities grouped by county",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if county != "" {
					c, source, err := a.facilities.GetCounty(ctx, facility.CountyID(county))
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(out, c)
					}
					return printCounty(out, c, source)
				}
				counties, source := a.facilities.ListCounties(ctx)
				if asJSON {
					return writeJSON(out, counties)
				}
				return printCounties(out, counties, source)
			})
		},
	}
	cmd.Flags().StringVar(&county, "county", "", "Show the facilities of one county (name or id)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printCounties(w io.Writer, counties []facility.County, source statsapi.Source) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTY\tID\tFACILITIES")
	total := 0
	for _, c := range counties {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.ID, len(c.Facilities))
		total += len(c.Facilities)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d counties, %d facilities (source: %s)\n", len(counties), total, source)
	return err
}

func printCounty(w io.Writer, c *facility.County, source statsapi.Source) error {
	fmt.Fprintf(w, "%s (%s)\n\n", c.Name, source)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MFL\tNAME\tTYPE\tSUBCOUNTY\tPATIENTS\tSUPPRESSION")
	for _, f := range c.Facilities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d%%\n",
			f.MFLCode, f.Name, facility.TypeLabel(f.Type), f.Subcounty, f.Patients, f.ViralSuppression)
	}
	return tw.Flush()
}

func summaryCmd() *cobra.Command {
	var sel selection
	var dept, modality string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the aggregated summary for one indicator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, r, err := sel.resolve()
			if err != nil {
				return err
			}
			q := statsapi.Query{
				ReportDept:  strings.ToUpper(dept),
				Modality:    strings.ToUpper(modality),
				LocationIDs: ids,
				Start:       r.Start,
				End:         r.End,
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res := a.summaries.Summary(ctx, q)
				if sel.asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				return printSummary(cmd.OutOrStdout(), res, r)
			})
		},
	}
	sel.bind(cmd)
	cmd.Flags().StringVar(&dept, "dept", "HTS", "Reporting department")
	cmd.Flags().StringVar(&modality, "modality", "HTS_TST", "Indicator modality")
	return cmd
}

func printSummary(w io.Writer, res summary.Result, r daterange.Range) error {
	d := res.Data
	fmt.Fprintf(w, "%s  %s  (%d rows, source: %s)\n\n", res.Query, r.Label, res.Rows, res.Source)
	fmt.Fprintf(w, "Total:   %s\n", dashboard.FormatCount(d.Total))
	fmt.Fprintf(w, "Male:    %s (%d%%)\n", dashboard.FormatCount(d.Male), d.MalePercent)
	fmt.Fprintf(w, "Female:  %s (%d%%)\n", dashboard.FormatCount(d.Female), d.FemalePercent)
	if d.TopAgeGroup != "" {
		fmt.Fprintf(w, "Top age: %s (%s)\n", d.TopAgeGroup, dashboard.FormatCount(d.TopAgeGroupValue))
	}
	if len(res.Breakdown) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGE GROUP\tVALUE\tSHARE")
	for _, g := range res.Breakdown {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", g.Label, dashboard.FormatCount(g.Value), g.Percent)
	}
	return tw.Flush()
}

func categoryFilter(arg string, sel *selection) (dashboard.Filter, error) {
	cat, err := dashboard.ParseCategory(arg)
	if err != nil {
		return dashboard.Filter{}, err
	}
	ids, r, err := sel.resolve()
	if err != nil {
		return dashboard.Filter{}, err
	}
	return dashboard.Filter{Category: cat, LocationIDs: ids, Range: r}, nil
}

func dashboardCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "dashboard <hts|care>",
		Short: "Load and print the metric cards of a dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := categoryFilter(args[0], &sel)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				board, err := a.dashboards.Load(ctx, f)
				if err != nil {
					return err
				}
				if sel.asJSON {
					return writeJSON(cmd.OutOrStdout(), board)
				}
				return printBoard(cmd.OutOrStdout(), board)
			})
		},
	}
	sel.bind(cmd)
	return cmd
}

func printBoard(w io.Writer, b *dashboard.Board) error {
	fmt.Fprintf(w, "%s dashboard, %s (source: %s)\n\n", strings.ToUpper(string(b.Filter.Category)), b.Filter.Range.Label, b.Source)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE\tCHANGE\tMALE\tFEMALE\tTOP AGE\tBAND\tSOURCE")
	for _, c := range b.Cards {
		male, female := "-", "-"
		if c.Unit == dashboard.UnitCount {
			male, female = fmt.Sprintf("%d%%", c.MalePercent), fmt.Sprintf("%d%%", c.FemalePercent)
		}
		top, band := c.TopAgeGroup, string(c.Band)
		if top == "" {
			top = "-"
		}
		if band == "" {
			band = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%+.1f%%\t%s\t%s\t%s\t%s\t%s\n", c.Title, c.FormattedValue, c.Change, male, female, top, band, c.Source)
	}
	return tw.Flush()
}

func watchCmd() *cobra.Command {
	var sel selection
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <hts|care>",
		Short: "Reload a dashboard periodically and print each committed board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := categoryFilter(args[0], &sel)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				loader := dashboard.NewLoader(a.dashboards, a.logger)
				return watch(ctx, loader, f, interval, func(b *dashboard.Board) error {
					if sel.asJSON {
						return writeJSON(cmd.OutOrStdout(), b)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", b.LoadedAt.Format(time.RFC3339))
					return printBoard(cmd.OutOrStdout(), b)
				})
			})
		},
	}
	sel.bind(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Reload interval")
	return cmd
}

// watch loads f, then reloads it every interval until ctx ends. Each board
// the loader commits is passed to emit; stale loads are skipped.
func watch(ctx context.Context, loader *dashboard.Loader, f dashboard.Filter, interval time.Duration, emit func(*dashboard.Board) error) error {
	board, err := loader.Load(ctx, f)
	for {
		switch {
		case err == nil:
			if err := emit(board); err != nil {
				return err
			}
		case errors.Is(err, dashboard.ErrStale):
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		board, err = loader.Reload(ctx)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres snapshot schema",
	}

	var schema, dir string
	addFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&schema, "schema", "public", "Target schema for migrations")
		c.Flags().StringVar(&dir, "dir", "", "Read migrations from this directory instead of the embedded set")
	}
	migrations := func() fs.FS {
		if dir != "" {
			return os.DirFS(dir)
		}
		return snapshot.PostgresMigrations()
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running migrations on schema: %s\n", schema)
			count, err := db.NewMigrator(pool, migrations()).Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(out, "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	addFlags(upCmd)
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations()).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return printMigrationStatus(cmd.OutOrStdout(), schema, statuses)
		},
	}
	addFlags(statusCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(w io.Writer, schema string, statuses []db.MigrationStatus) error {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		if _, err := fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt); err != nil {
			return err
		}
	}
	return nil
}
