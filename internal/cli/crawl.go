package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanifm/pagedown/internal/crawler"
	"github.com/hanifm/pagedown/internal/storage"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a documentation site and convert every in-scope page.",
	Long: `crawl starts from one or more seed URLs, follows in-scope links
breadth-first up to the configured depth, and converts every visited page
into the output directory. An index.json manifest describing the run is
written next to the converted pages.

Individual page failures are recorded in the manifest and do not abort
the crawl.`,
	Run: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().StringArrayVar(&seedURLs, "seed-url", []string{}, "one or more starting URLs (can be repeated)")
	addCrawlFlags(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) {
	if len(seedURLs) == 0 {
		fmt.Fprintf(os.Stderr, "Error: --seed-url is required. Please provide at least one seed URL to start crawling.\n")
		cmd.Usage()
		os.Exit(1)
	}

	parsedURLs, err := parseSeedURLs(seedURLs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cfg := InitConfig(parsedURLs)
	engine := crawler.NewEngine(cfg)

	result, crawlErr := engine.Crawl(context.Background())
	if crawlErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", crawlErr)
		os.Exit(1)
	}

	printCrawlSummary(result, cfg.OutputDir())
}

// printCrawlSummary reports the run on stdout. Page-level failures are part
// of a completed run and do not change the exit code.
func printCrawlSummary(result storage.CrawlResult, outputDir string) {
	duration := result.EndTime().Sub(result.StartTime()).Round(time.Millisecond)
	fmt.Printf("Converted %d pages (%d ok, %d failed) in %s\n",
		len(result.Pages()),
		result.SuccessfulCount(),
		result.ErrorCount(),
		duration,
	)
	fmt.Printf("Manifest: %s\n", filepath.Join(outputDir, storage.ManifestFilename))
}
