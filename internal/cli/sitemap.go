package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanifm/pagedown/internal/crawler"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <sitemap-url>",
	Short: "Convert every page listed in a sitemap.",
	Long: `sitemap fetches the given sitemap (or sitemap index), resolves it to
a flat list of page URLs, and converts each one into the output directory.
No links are followed; the sitemap alone decides what gets converted.

Scope filtering still applies relative to the first --seed-url when given,
otherwise relative to the sitemap URL itself.`,
	Args: cobra.ExactArgs(1),
	Run:  runSitemap,
}

func init() {
	rootCmd.AddCommand(sitemapCmd)
	sitemapCmd.Flags().StringArrayVar(&seedURLs, "seed-url", []string{}, "scope anchor URLs (defaults to the sitemap URL)")
	addCrawlFlags(sitemapCmd)
}

func runSitemap(cmd *cobra.Command, args []string) {
	sitemapUrl := args[0]

	seeds := seedURLs
	if len(seeds) == 0 {
		seeds = []string{sitemapUrl}
	}
	parsedURLs, err := parseSeedURLs(seeds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if parsed, parseErr := url.Parse(sitemapUrl); parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		fmt.Fprintf(os.Stderr, "Error: sitemap URL %q must be absolute (http or https)\n", sitemapUrl)
		os.Exit(1)
	}

	cfg := InitConfig(parsedURLs)
	engine := crawler.NewEngine(cfg)

	result, crawlErr := engine.CrawlSitemap(context.Background(), sitemapUrl)
	if crawlErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", crawlErr)
		os.Exit(1)
	}

	printCrawlSummary(result, cfg.OutputDir())
}
