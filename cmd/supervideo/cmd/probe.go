package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/supervideo/internal/service"
	"github.com/jmylchreest/supervideo/pkg/format"
)

var probeCmd = &cobra.Command{
	Use:   "probe url",
	Short: "Describe an HLS manifest",
	Long: `Fetch an HLS (.m3u8) manifest and print its renditions or segment summary.

  supervideo probe https://example.com/live/master.m3u8`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().Bool("json", false, "output the probe result as JSON")
	probeCmd.Flags().Duration("timeout", 0, "override probe.timeout")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Probe.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	result, err := newProbeService(cfg, slog.Default()).Probe(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, result)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Playlist:\t%s\n", result.PlaylistType)
	fmt.Fprintf(tw, "Manifest:\t%s\n", format.Bytes(int64(result.ManifestBytes)))
	fmt.Fprintf(tw, "Elapsed:\t%s\n", format.Duration(result.Elapsed))

	switch result.PlaylistType {
	case service.PlaylistMultivariant:
		fmt.Fprintf(tw, "Variants:\t%d\n", len(result.Variants))
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return writeVariants(cmd, result.Variants)
	default:
		live := "no"
		if result.Live {
			live = "yes"
		}
		fmt.Fprintf(tw, "Live:\t%s\n", live)
		fmt.Fprintf(tw, "Segments:\t%s\n", format.Number(int64(result.SegmentCount)))
		fmt.Fprintf(tw, "Target duration:\t%ds\n", result.TargetDuration)
		fmt.Fprintf(tw, "Total duration:\t%s\n", format.PlaybackTime(int(result.TotalDuration.Seconds())))
		fmt.Fprintf(tw, "Encrypted:\t%t\n", result.Encrypted)
		fmt.Fprintf(tw, "fMP4:\t%t\n", result.FMP4)
	}
	return tw.Flush()
}

func writeVariants(cmd *cobra.Command, variants []service.ProbeVariant) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BANDWIDTH\tRESOLUTION\tFPS\tCODECS\tURI")
	for _, v := range variants {
		fps := ""
		if v.FrameRate > 0 {
			fps = humanize.FtoaWithDigits(v.FrameRate, 3)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			humanize.SIWithDigits(float64(v.Bandwidth), 1, "bps"),
			v.Resolution,
			fps,
			strings.Join(v.Codecs, ","),
			format.Truncate(v.URI, 60),
		)
	}
	return tw.Flush()
}
