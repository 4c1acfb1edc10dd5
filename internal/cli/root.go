package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanifm/pagedown/internal/aidoc"
	"github.com/hanifm/pagedown/internal/config"
	"github.com/hanifm/pagedown/internal/converter"
	"github.com/hanifm/pagedown/internal/fetcher"
	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/internal/scope"
	"github.com/hanifm/pagedown/pkg/fileutil"
	"github.com/hanifm/pagedown/pkg/retry"
	"github.com/hanifm/pagedown/pkg/timeutil"
)

var (
	cfgFile    string
	userAgent  string
	timeout    time.Duration
	verbose    bool
	seedURLs   []string
	outputDir  string
	maxDepth   int
	maxPages   int
	baseDelay  time.Duration
	jitter     time.Duration
	randomSeed int64
	maxAttempt int
	scopeName  string
	pathPrefix string
	formatName string

	outputFile    string
	cssSelector   string
	stripLinks    bool
	stripImages   bool
	includeTOC    bool
	compactOutput bool
	xmlOutput     bool
	xmlNoMetadata bool
	xmlNoDate     bool
	xmlDocTag     string
	xmlNoBeautify bool
)

// parseSeedURLs converts a string slice of URLs to []url.URL
func parseSeedURLs(urlStrings []string) ([]url.URL, error) {
	if len(urlStrings) == 0 {
		return nil, fmt.Errorf("seed URLs cannot be empty")
	}

	var urls []url.URL
	for _, urlStr := range urlStrings {
		parsedURL, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing seed URL %s: %w", urlStr, err)
		}
		urls = append(urls, *parsedURL)
	}
	return urls, nil
}

// rootCmd represents the base command when called without any subcommands.
// On its own it converts a single page and prints or saves the result.
var rootCmd = &cobra.Command{
	Use:   "pagedown <url>",
	Short: "Convert web pages to clean Markdown or structured XML.",
	Long: `pagedown converts web pages into clean, readable Markdown or a
structured XML document format suitable for AI retrieval workflows.

Called with a URL it converts that single page and writes the result to
stdout (or to a file with -o). The crawl and sitemap subcommands convert
whole documentation sites into an output directory with a manifest.`,
	Args: cobra.ExactArgs(1),
	Run:  runConvert,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write output to a file instead of stdout")
	rootCmd.Flags().StringVarP(&cssSelector, "css", "s", "", "extract only content matching the CSS selector (e.g., \"main\")")
	rootCmd.Flags().BoolVarP(&stripLinks, "no-links", "L", false, "strip hyperlinks, keeping their text")
	rootCmd.Flags().BoolVarP(&stripImages, "no-images", "I", false, "exclude images from the output")
	rootCmd.Flags().BoolVarP(&includeTOC, "toc", "t", false, "generate a table of contents from headings")
	rootCmd.Flags().BoolVarP(&compactOutput, "compact", "c", false, "collapse excessive blank lines")
	rootCmd.Flags().BoolVar(&xmlOutput, "xml", false, "output the structured XML document format instead of Markdown")
	rootCmd.Flags().BoolVar(&xmlNoMetadata, "xml-no-metadata", false, "exclude the metadata section from XML output")
	rootCmd.Flags().BoolVar(&xmlNoDate, "xml-no-date", false, "exclude the date from XML metadata")
	rootCmd.Flags().StringVar(&xmlDocTag, "xml-doc-tag", "", "root tag for XML output")
	rootCmd.Flags().BoolVar(&xmlNoBeautify, "xml-no-beautify", false, "emit XML without indentation")
}

// addCrawlFlags registers the options shared by the crawl and sitemap
// subcommands.
func addCrawlFlags(c *cobra.Command) {
	c.Flags().StringVar(&outputDir, "output-dir", "output", "root output directory for converted content")
	c.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum link depth from seed URL")
	c.Flags().IntVar(&maxPages, "max-pages", 0, "maximum number of pages to convert (0 for unlimited)")
	c.Flags().DurationVar(&baseDelay, "base-delay", 0, "base delay between HTTP requests")
	c.Flags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	c.Flags().Int64Var(&randomSeed, "random-seed", 0, "seed for jitter generation (0 for current time)")
	c.Flags().IntVar(&maxAttempt, "max-attempt", 0, "attempts per request before giving up")
	c.Flags().StringVar(&scopeName, "scope", "", "scope policy: subdomain, domain, or path-prefix")
	c.Flags().StringVar(&pathPrefix, "path-prefix", "", "path prefix for the path-prefix scope policy")
	c.Flags().StringVar(&formatName, "format", "", "output format: markdown or xml")
	c.Flags().StringVarP(&cssSelector, "css", "s", "", "extract only content matching the CSS selector")
	c.Flags().BoolVarP(&stripLinks, "no-links", "L", false, "strip hyperlinks, keeping their text")
	c.Flags().BoolVarP(&stripImages, "no-images", "I", false, "exclude images from the output")
	c.Flags().BoolVarP(&includeTOC, "toc", "t", false, "generate a table of contents per page")
	c.Flags().BoolVarP(&compactOutput, "compact", "c", false, "collapse excessive blank lines")
}

func runConvert(cmd *cobra.Command, args []string) {
	pageUrl, err := url.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid URL %q: %s\n", args[0], err)
		os.Exit(1)
	}
	if pageUrl.Scheme == "" || pageUrl.Host == "" {
		fmt.Fprintf(os.Stderr, "Error: URL %q must be absolute (http or https)\n", args[0])
		os.Exit(1)
	}

	if xmlOutput {
		formatName = "xml"
	}
	cfg := InitConfig([]url.URL{*pageUrl})

	recorder := metadata.NewRecorder("convert", cfg.Verbose())
	htmlFetcher := fetcher.NewHtmlFetcher(&recorder)
	pageConverter := converter.NewPageConverter(
		&htmlFetcher,
		&recorder,
		converter.NewOptions(
			cfg.CSSSelector(),
			cfg.IncludeLinks(),
			cfg.IncludeImages(),
			cfg.IncludeTOC(),
			cfg.CompactOutput(),
		),
		cfg.UserAgent(),
		cfg.Timeout(),
		retryParamFromConfig(cfg),
	)

	doc, convErr := pageConverter.Convert(context.Background(), *pageUrl, 0)
	if convErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", convErr)
		os.Exit(1)
	}

	content := doc.Markdown()
	if cfg.Format() == config.FormatXML {
		renderer := aidoc.NewRenderer(aidoc.NewOptions(
			cfg.XMLIncludeMetadata(),
			cfg.XMLAddDate(),
			cfg.XMLDocTag(),
			cfg.XMLBeautify(),
		))
		content = renderer.Render(content, pageUrl.String())
	}

	if outputFile == "" {
		fmt.Print(content)
		return
	}
	if writeErr := fileutil.WriteFile(outputFile, []byte(content)); writeErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", writeErr)
		os.Exit(1)
	}
}

func retryParamFromConfig(cfg config.Config) retry.RetryParam {
	return retry.RetryParam{
		Jitter:      cfg.Jitter(),
		RandomSeed:  cfg.RandomSeed(),
		MaxAttempts: cfg.MaxAttempt(),
		BackoffParam: timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	}
}

// InitConfig reads in config file and flag values.
// seedUrls is a mandatory parameter and must contain at least one valid URL.
func InitConfig(seedUrls []url.URL) config.Config {
	cfg, err := InitConfigWithError(seedUrls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and flag values, returning any errors.
// seedUrls is a mandatory parameter and must contain at least one valid URL.
// This makes it easier to test error cases.
func InitConfigWithError(seedUrls []url.URL) (config.Config, error) {
	if len(seedUrls) == 0 {
		return config.Config{}, fmt.Errorf("%w: seedUrls cannot be empty", config.ErrInvalidConfig)
	}

	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Start with default config using provided seed URLs and apply overrides
	// using method chaining
	configBuilder := config.WithDefault(seedUrls)

	if maxDepth >= 0 {
		configBuilder = configBuilder.WithMaxDepth(maxDepth)
	}

	if maxPages > 0 {
		configBuilder = configBuilder.WithMaxPages(maxPages)
	}

	if outputDir != "" && outputDir != "output" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if scopeName != "" {
		policy, err := scope.ParsePolicy(scopeName)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err)
		}
		configBuilder = configBuilder.WithScopePolicy(policy)
	}

	if pathPrefix != "" {
		configBuilder = configBuilder.WithPathPrefix(pathPrefix)
	}

	if formatName != "" {
		format, err := config.ParseOutputFormat(formatName)
		if err != nil {
			return config.Config{}, err
		}
		configBuilder = configBuilder.WithFormat(format)
	}

	configBuilder = configBuilder.
		WithVerbose(verbose).
		WithCSSSelector(cssSelector).
		WithIncludeLinks(!stripLinks).
		WithIncludeImages(!stripImages).
		WithIncludeTOC(includeTOC).
		WithCompactOutput(compactOutput).
		WithXMLIncludeMetadata(!xmlNoMetadata).
		WithXMLAddDate(!xmlNoDate).
		WithXMLBeautify(!xmlNoBeautify)

	if xmlDocTag != "" {
		configBuilder = configBuilder.WithXMLDocTag(xmlDocTag)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	userAgent = ""
	timeout = 0
	verbose = false
	seedURLs = []string{}
	outputDir = ""
	maxDepth = -1
	maxPages = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	maxAttempt = 0
	scopeName = ""
	pathPrefix = ""
	formatName = ""
	outputFile = ""
	cssSelector = ""
	stripLinks = false
	stripImages = false
	includeTOC = false
	compactOutput = false
	xmlOutput = false
	xmlNoMetadata = false
	xmlNoDate = false
	xmlDocTag = ""
	xmlNoBeautify = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetMaxDepthForTest(depth int) {
	maxDepth = depth
}

func SetMaxPagesForTest(pages int) {
	maxPages = pages
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetScopeForTest(name string) {
	scopeName = name
}

func SetFormatForTest(name string) {
	formatName = name
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(d time.Duration) {
	timeout = d
}

func SetBaseDelayForTest(d time.Duration) {
	baseDelay = d
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetStripLinksForTest(strip bool) {
	stripLinks = strip
}

func SetXMLDocTagForTest(tag string) {
	xmlDocTag = tag
}
