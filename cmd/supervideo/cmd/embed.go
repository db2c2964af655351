package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/supervideo/internal/http/handlers"
	"github.com/jmylchreest/supervideo/internal/render"
)

var embedCmd = &cobra.Command{
	Use:   "embed url [url...]",
	Short: "Render player markup for media URLs",
	Long: `Render the player markup for each URL and print it as an HTML fragment.

Every player is queued on one loader, so the script block printed last
starts all of them. A view record is created or updated for each URL.

  supervideo embed https://vimeo.com/76979871 > fragment.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().Bool("json", false, "output one embed response per URL as JSON")
	embedCmd.Flags().Bool("strict", false, "only accept URLs matched by a media rule")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict") {
		cfg.Classifier.Strict, _ = cmd.Flags().GetBool("strict")
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

	out := cmd.OutOrStdout()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		responses := make([]handlers.EmbedResponse, 0, len(args))
		for _, u := range args {
			result, err := app.embeds.Embed(ctx, u)
			if err != nil {
				return err
			}
			responses = append(responses, handlers.EmbedFromResult(result))
		}
		return writeJSON(out, responses)
	}

	loader := render.NewCollector(loaderURL)
	for _, u := range args {
		result, err := app.embeds.EmbedWith(ctx, u, loader)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.HTML)
	}

	scripts, err := loader.Scripts()
	if err != nil {
		return fmt.Errorf("rendering scripts: %w", err)
	}
	fmt.Fprintln(out, scripts)
	return nil
}
