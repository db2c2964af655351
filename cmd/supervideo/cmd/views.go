package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/config"
	"github.com/jmylchreest/supervideo/internal/http/handlers"
	"github.com/jmylchreest/supervideo/internal/models"
	"github.com/jmylchreest/supervideo/internal/repository"
	"github.com/jmylchreest/supervideo/pkg/format"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Inspect and maintain view records",
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List view records, most recently seen first",
	Args:  cobra.NoArgs,
	RunE:  runViewsList,
}

var viewsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate view statistics",
	Args:  cobra.NoArgs,
	RunE:  runViewsStats,
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete id [id...]",
	Short: "Delete view records by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runViewsDelete,
}

var viewsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete views not seen within the retention window",
	Long: `Delete every view record not seen within --max-age, or within
retention.max_age when the flag is not given. Durations accept d and w
units, e.g. 90d or 12w.`,
	Args: cobra.NoArgs,
	RunE: runViewsPrune,
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.AddCommand(viewsListCmd, viewsStatsCmd, viewsDeleteCmd, viewsPruneCmd)

	viewsListCmd.Flags().String("kind", "", "only list views of this media kind")
	viewsListCmd.Flags().Int("limit", repository.DefaultListLimit, "page size")
	viewsListCmd.Flags().Int("offset", 0, "page offset")
	viewsListCmd.Flags().Bool("json", false, "output views as JSON")

	viewsStatsCmd.Flags().Bool("json", false, "output statistics as JSON")

	viewsPruneCmd.Flags().String("max-age", "", "retention window (default retention.max_age)")
}

// withApplication loads the configuration, opens the application and runs fn.
func withApplication(cmd *cobra.Command, fn func(ctx context.Context, app *application) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApplication(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	return fn(ctx, app)
}

func runViewsList(cmd *cobra.Command, _ []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	asJSON, _ := cmd.Flags().GetBool("json")

	if kind != "" && !classifier.MediaKind(kind).IsValid() {
		return fmt.Errorf("unknown media kind %q", kind)
	}

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		views, total, err := app.views.List(ctx, repository.ViewListOptions{
			Kind:   classifier.MediaKind(kind),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			resp := make([]handlers.ViewResponse, 0, len(views))
			for _, v := range views {
				resp = append(resp, handlers.ViewFromModel(v))
			}
			return writeJSON(out, resp)
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tPROGRESS\tWATCHED\tHITS\tLAST SEEN\tURL")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				v.ID,
				v.Kind,
				progress(v),
				format.Percentage(float64(v.Percent), 0),
				format.Number(v.HitCount),
				format.RelativeTime(v.LastSeenAt),
				format.Truncate(v.URL, 60),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s of %s views\n", format.Number(int64(len(views))), format.Number(total))
		return nil
	})
}

func progress(v *models.View) string {
	if v.Duration <= 0 {
		return format.PlaybackTime(v.CurrentTime)
	}
	return format.PlaybackTime(v.CurrentTime) + "/" + format.PlaybackTime(v.Duration)
}

func runViewsStats(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		stats, err := app.views.Stats(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, stats)
		}

		completed := 0.0
		if stats.TotalViews > 0 {
			completed = float64(stats.CompletedViews) / float64(stats.TotalViews) * 100
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Views:\t%s\n", format.Number(stats.TotalViews))
		fmt.Fprintf(tw, "Completed:\t%s (%s)\n", format.Number(stats.CompletedViews), format.Percentage(completed, 1))
		fmt.Fprintf(tw, "Hits:\t%s\n", format.Number(stats.TotalHits))
		return tw.Flush()
	})
}

func runViewsDelete(cmd *cobra.Command, args []string) error {
	return withApplication(cmd, func(ctx context.Context, app *application) error {
		for _, id := range args {
			if err := app.views.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		return nil
	})
}

func runViewsPrune(cmd *cobra.Command, _ []string) error {
	return withApplication(cmd, func(ctx context.Context, app *application) error {
		maxAge := app.cfg.Retention.MaxAge
		if raw, _ := cmd.Flags().GetString("max-age"); raw != "" {
			parsed, err := config.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid --max-age: %w", err)
			}
			maxAge = parsed
		}

		removed, err := app.views.Prune(ctx, maxAge.Duration())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %s views not seen within %s\n", format.Number(removed), maxAge)
		return nil
	})
}
