package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/http/handlers"
	"github.com/jmylchreest/supervideo/pkg/format"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [url...]",
	Short: "Classify media URLs",
	Long: `Classify each URL and print the media kind it maps to.

URLs are read from the arguments, or one per line from standard input when
none are given. Blank lines and lines starting with # are skipped.

  supervideo classify https://youtu.be/dQw4w9WgXcQ https://vimeo.com/76979871
  cat urls.txt | supervideo classify --supported`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Bool("json", false, "output results as JSON")
	classifyCmd.Flags().Bool("strict", false, "only accept URLs matched by a media rule")
	classifyCmd.Flags().Bool("supported", false, "print only the supported URLs, one per line")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict") {
		cfg.Classifier.Strict, _ = cmd.Flags().GetBool("strict")
	}

	urls := args
	if len(urls) == 0 {
		urls, err = readURLs(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given")
	}

	c := newClassifier(cfg)
	out := cmd.OutOrStdout()

	if supportedOnly, _ := cmd.Flags().GetBool("supported"); supportedOnly {
		for _, u := range c.SupportedURLs(urls) {
			fmt.Fprintln(out, u)
		}
		return nil
	}

	results := c.ClassifyAll(urls)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, lo.Map(results, func(r classifier.Result, _ int) handlers.ClassificationResponse {
			return handlers.ClassificationFromResult(r)
		}))
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tKIND\tSUPPORTED\tID")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", format.Truncate(r.URL, 72), r.Kind, r.Supported(), r.VideoID())
	}
	return tw.Flush()
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading urls: %w", err)
	}
	return urls, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
