package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hanifm/pagedown/internal/scope"
)

// OutputFormat selects the document format produced for each page.
type OutputFormat string

const (
	// FormatMarkdown writes GitHub-flavored Markdown (.md).
	FormatMarkdown OutputFormat = "markdown"
	// FormatXML writes the structured XML document format (.xml) used for
	// feeding AI models.
	FormatXML OutputFormat = "xml"
)

// Extension returns the file extension for the format, including the dot.
func (f OutputFormat) Extension() string {
	if f == FormatXML {
		return ".xml"
	}
	return ".md"
}

// ParseOutputFormat converts a CLI-level format name into an OutputFormat.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch name {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "xml":
		return FormatXML, nil
	default:
		return FormatMarkdown, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, name)
	}
}

// Config is the immutable configuration for one crawl run. It is built once
// before the run starts and owned exclusively by the crawl engine; nothing
// mutates it afterwards.
type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Initial pages to give to the crawler to begin discovering and traversing other pages.
	seedURLs []url.URL
	// Which discovered URLs stay eligible for traversal.
	scopePolicy scope.Policy
	// Path prefix consulted when scopePolicy is PathPrefix. Empty means the
	// first seed's own path.
	pathPrefix string

	//===============
	// Limits
	//===============
	// Maximum number of hyperlink hops from a seed (root) URL
	maxDepth int
	// Maximum number of total documents allowed to be fetched. 0 = unlimited.
	maxPages int

	//===============
	// Politeness
	//===============
	// Fixed waiting time enforced between two processed pages.
	delay time.Duration
	// Randomized variation added on top of the delay.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string

	//===============
	// Output
	//===============
	// Root directory in which to store the resulting document files
	outputDir string
	// Document format written for each page
	format OutputFormat
	// Whether progress is logged per page
	verbose bool

	//===============
	// Conversion
	//===============
	// CSS selector narrowing conversion to a subtree (empty = whole page)
	cssSelector string
	// Whether hyperlinks survive conversion or collapse to plain text
	includeLinks bool
	// Whether images survive conversion
	includeImages bool
	// Whether a table of contents is generated from headings
	includeTOC bool
	// Whether runs of blank lines are collapsed
	compactOutput bool

	//===============
	// XML document format
	//===============
	// Whether the XML document carries a metadata section
	xmlIncludeMetadata bool
	// Whether the metadata section carries the conversion date
	xmlAddDate bool
	// Root tag of the XML document
	xmlDocTag string
	// Whether the XML output is indented for human readers
	xmlBeautify bool
}

type configDTO struct {
	SeedURLs               []string      `json:"seedUrls"`
	Scope                  string        `json:"scope,omitempty"`
	PathPrefix             string        `json:"pathPrefix,omitempty"`
	MaxDepth               int           `json:"maxDepth,omitempty"`
	MaxPages               int           `json:"maxPages,omitempty"`
	Delay                  time.Duration `json:"delay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	OutputDir              string        `json:"outputDir,omitempty"`
	Format                 string        `json:"format,omitempty"`
	Verbose                bool          `json:"verbose,omitempty"`
	CSSSelector            string        `json:"cssSelector,omitempty"`
	ExcludeLinks           bool          `json:"excludeLinks,omitempty"`
	ExcludeImages          bool          `json:"excludeImages,omitempty"`
	IncludeTOC             bool          `json:"includeToc,omitempty"`
	CompactOutput          bool          `json:"compactOutput,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	seeds := make([]url.URL, 0, len(dto.SeedURLs))
	for _, raw := range dto.SeedURLs {
		parsed, err := url.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: seed URL %q: %v", ErrInvalidConfig, raw, err)
		}
		seeds = append(seeds, *parsed)
	}

	builder := WithDefault(seeds)

	if dto.Scope != "" {
		policy, err := scope.ParsePolicy(dto.Scope)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		builder = builder.WithScopePolicy(policy)
	}
	if dto.PathPrefix != "" {
		builder = builder.WithPathPrefix(dto.PathPrefix)
	}
	if dto.MaxDepth != 0 {
		builder = builder.WithMaxDepth(dto.MaxDepth)
	}
	if dto.MaxPages != 0 {
		builder = builder.WithMaxPages(dto.MaxPages)
	}
	if dto.Delay != 0 {
		builder = builder.WithDelay(dto.Delay)
	}
	if dto.Jitter != 0 {
		builder = builder.WithJitter(dto.Jitter)
	}
	if dto.RandomSeed != 0 {
		builder = builder.WithRandomSeed(dto.RandomSeed)
	}
	if dto.MaxAttempt != 0 {
		builder = builder.WithMaxAttempt(dto.MaxAttempt)
	}
	if dto.BackoffInitialDuration != 0 {
		builder = builder.WithBackoffInitialDuration(dto.BackoffInitialDuration)
	}
	if dto.BackoffMultiplier != 0 {
		builder = builder.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.BackoffMaxDuration != 0 {
		builder = builder.WithBackoffMaxDuration(dto.BackoffMaxDuration)
	}
	if dto.Timeout != 0 {
		builder = builder.WithTimeout(dto.Timeout)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if dto.OutputDir != "" {
		builder = builder.WithOutputDir(dto.OutputDir)
	}
	if dto.Format != "" {
		format, err := ParseOutputFormat(dto.Format)
		if err != nil {
			return Config{}, err
		}
		builder = builder.WithFormat(format)
	}
	builder = builder.WithVerbose(dto.Verbose)
	if dto.CSSSelector != "" {
		builder = builder.WithCSSSelector(dto.CSSSelector)
	}
	builder = builder.WithIncludeLinks(!dto.ExcludeLinks)
	builder = builder.WithIncludeImages(!dto.ExcludeImages)
	builder = builder.WithIncludeTOC(dto.IncludeTOC)
	builder = builder.WithCompactOutput(dto.CompactOutput)

	return builder.Build()
}

// WithConfigFile loads a Config from a JSON file.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	if err := json.Unmarshal(configContent, &cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with the provided seed URLs and default
// values for all other fields. seedUrls is mandatory and must not be empty -
// Build will return an error if it is.
func WithDefault(seedUrls []url.URL) *Config {
	defaultConfig := Config{
		seedURLs:               seedUrls,
		scopePolicy:            scope.SameSubdomain,
		maxDepth:               3,
		maxPages:               0,
		delay:                  time.Second,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "pagedown/1.0",
		outputDir:              "output",
		format:                 FormatMarkdown,
		verbose:                true,
		includeLinks:           true,
		includeImages:          true,
		xmlIncludeMetadata:     true,
		xmlAddDate:             true,
		xmlDocTag:              "ai_documentation",
		xmlBeautify:            true,
	}
	return &defaultConfig
}

func (c *Config) WithSeedUrls(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithScopePolicy(policy scope.Policy) *Config {
	c.scopePolicy = policy
	return c
}

func (c *Config) WithPathPrefix(prefix string) *Config {
	c.pathPrefix = prefix
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithMaxPages(pages int) *Config {
	c.maxPages = pages
	return c
}

func (c *Config) WithDelay(delay time.Duration) *Config {
	c.delay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithFormat(format OutputFormat) *Config {
	c.format = format
	return c
}

func (c *Config) WithVerbose(verbose bool) *Config {
	c.verbose = verbose
	return c
}

func (c *Config) WithCSSSelector(selector string) *Config {
	c.cssSelector = selector
	return c
}

func (c *Config) WithIncludeLinks(include bool) *Config {
	c.includeLinks = include
	return c
}

func (c *Config) WithIncludeImages(include bool) *Config {
	c.includeImages = include
	return c
}

func (c *Config) WithIncludeTOC(include bool) *Config {
	c.includeTOC = include
	return c
}

func (c *Config) WithCompactOutput(compact bool) *Config {
	c.compactOutput = compact
	return c
}

func (c *Config) WithXMLIncludeMetadata(include bool) *Config {
	c.xmlIncludeMetadata = include
	return c
}

func (c *Config) WithXMLAddDate(addDate bool) *Config {
	c.xmlAddDate = addDate
	return c
}

func (c *Config) WithXMLDocTag(tag string) *Config {
	c.xmlDocTag = tag
	return c
}

func (c *Config) WithXMLBeautify(beautify bool) *Config {
	c.xmlBeautify = beautify
	return c
}

// Build validates the configuration once. Values it returns are never
// re-validated at call sites.
func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("%w: seedUrls cannot be empty", ErrInvalidConfig)
	}
	for _, u := range c.seedURLs {
		if u.Scheme != "http" && u.Scheme != "https" {
			return Config{}, fmt.Errorf("%w: seed URL %q must be http or https", ErrInvalidConfig, u.String())
		}
		if u.Host == "" {
			return Config{}, fmt.Errorf("%w: seed URL %q has no host", ErrInvalidConfig, u.String())
		}
	}
	if c.maxDepth < 0 {
		return Config{}, fmt.Errorf("%w: maxDepth cannot be negative", ErrInvalidConfig)
	}
	if c.maxPages < 0 {
		return Config{}, fmt.Errorf("%w: maxPages cannot be negative", ErrInvalidConfig)
	}
	if c.delay < 0 {
		return Config{}, fmt.Errorf("%w: delay cannot be negative", ErrInvalidConfig)
	}
	if c.outputDir == "" {
		return Config{}, fmt.Errorf("%w: outputDir cannot be empty", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) SeedURLs() []url.URL {
	urls := make([]url.URL, len(c.seedURLs))
	copy(urls, c.seedURLs)
	return urls
}

func (c Config) ScopePolicy() scope.Policy {
	return c.scopePolicy
}

func (c Config) PathPrefix() string {
	return c.pathPrefix
}

func (c Config) MaxDepth() int {
	return c.maxDepth
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) Delay() time.Duration {
	return c.delay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) Format() OutputFormat {
	return c.format
}

func (c Config) Verbose() bool {
	return c.verbose
}

func (c Config) CSSSelector() string {
	return c.cssSelector
}

func (c Config) IncludeLinks() bool {
	return c.includeLinks
}

func (c Config) IncludeImages() bool {
	return c.includeImages
}

func (c Config) IncludeTOC() bool {
	return c.includeTOC
}

func (c Config) CompactOutput() bool {
	return c.compactOutput
}

func (c Config) XMLIncludeMetadata() bool {
	return c.xmlIncludeMetadata
}

func (c Config) XMLAddDate() bool {
	return c.xmlAddDate
}

func (c Config) XMLDocTag() string {
	return c.xmlDocTag
}

func (c Config) XMLBeautify() bool {
	return c.xmlBeautify
}
