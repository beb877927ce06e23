// ------------------------------------------------------
// FuzzKit - Command Line Interface
// Fuzzy string-similarity scoring toolkit
// ------------------------------------------------------

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/fuzzkit/fuzzkit/pkg/api"
	"github.com/fuzzkit/fuzzkit/pkg/config"
	"github.com/fuzzkit/fuzzkit/pkg/matcher"
	"github.com/fuzzkit/fuzzkit/pkg/result"
)

// CommandLineArgs represents command line arguments.
type CommandLineArgs struct {
	Needle     string   `arg:"positional" help:"Reference string to score candidates against" placeholder:"NEEDLE"`
	Candidates []string `arg:"positional" help:"Candidate strings (prefix with @ to read from a file)" placeholder:"CANDIDATE"`

	// Scoring options
	Algorithm   string  `arg:"-a,--algorithm"   help:"Similarity algorithm: ratio|levenshtein|jaro|jaro-winkler" default:"ratio"`
	Limit       int     `arg:"-l,--limit"       help:"Maximum number of matches to report (0 = all)"             default:"0"`
	MaxScore    float64 `arg:"-m,--max-score"   help:"Drop matches scoring above this cutoff (0.0-1.0)"          default:"1"`
	Concurrency int     `arg:"-c,--concurrency" help:"Concurrent scoring workers"                                default:"8"`
	CacheSize   int     `arg:"--cache-size"     help:"Ranked-result cache size (0 disables caching)"             default:"1000"`
	Prefilter   bool    `arg:"--prefilter"      help:"Skip candidates that fail a subsequence prefilter"`

	// Output options
	Output     string `arg:"-o,--output"      help:"Output format: human|json|csv|markdown" default:"human"`
	OutputFile string `arg:"-O,--output-file" help:"Write output to file"                   placeholder:"FILE"`
	Quiet      bool   `arg:"-q,--quiet"       help:"Suppress all output except results"`
	Verbose    int    `arg:"-v,--verbose"     help:"Verbosity level (0-2)"                  default:"0"`

	// API server
	Serve     bool   `arg:"--serve"      help:"Run the REST API server instead of a one-shot ranking"`
	APIPort   int    `arg:"--api-port"   help:"API server port"               default:"8080"`
	APIKey    string `arg:"--api-key"    help:"Require this X-API-Key header" placeholder:"KEY"`
	RateLimit int    `arg:"--rate-limit" help:"Max API requests per second"   default:"100"`
}

// Version returns the version banner shown by --version.
func (CommandLineArgs) Version() string {
	return color.New(color.FgBlue, color.Bold).Sprint("🧵 FuzzKit v"+config.Version) +
		" · " + color.New(color.FgWhite, color.Bold).Sprint("Fuzzy String-Similarity Scoring")
}

// Description returns the tool description shown in help output.
func (CommandLineArgs) Description() string {
	return "Score one needle string against many haystack candidates using cached fuzzy comparison"
}

func main() {
	var args CommandLineArgs
	p := arg.MustParse(&args)

	// Validate algorithm.
	validAlgorithms := map[string]bool{
		"ratio": true, "levenshtein": true, "jaro": true, "jaro-winkler": true,
	}
	if !validAlgorithms[strings.ToLower(args.Algorithm)] {
		p.Fail("algorithm must be one of: ratio, levenshtein, jaro, jaro-winkler")
	}

	// Validate output format.
	validFormats := map[string]bool{
		"human": true, "json": true, "csv": true, "markdown": true,
	}
	if !validFormats[strings.ToLower(args.Output)] {
		p.Fail("output must be one of: human, json, csv, markdown")
	}

	cfg := buildConfig(args)
	setupLogging(cfg)

	// Validate config — surface any remaining constraint violations early.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Root context with cancellation on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n[!] Interrupt received, shutting down…")
		cancel()
	}()

	if args.Serve {
		runServer(ctx, cfg)
		return
	}

	candidates := buildCandidateList(args)
	if len(candidates) == 0 {
		p.Fail("at least one candidate is required (or use --serve)")
	}

	runRanking(ctx, cfg, args.Needle, candidates)
}

// runServer runs the REST API server until the context is cancelled.
func runServer(ctx context.Context, cfg *config.Config) {
	server, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise API server: %v", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("API server listening on :%d", cfg.APIPort)
	if err := server.Start(cfg.APIPort); err != nil && ctx.Err() == nil {
		log.Fatalf("API server error: %v", err)
	}
}

// runRanking performs a one-shot ranking and prints the results.
func runRanking(ctx context.Context, cfg *config.Config, needle string, candidates []string) {
	m, err := matcher.NewMatcher(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise matcher: %v", err)
	}

	processor, err := result.NewProcessor(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise result processor: %v", err)
	}
	defer processor.Close()

	printBanner(cfg, len(candidates))

	report, err := m.Rank(ctx, needle, candidates, cfg.Limit)
	if err != nil {
		log.Fatalf("Ranking failed: %v", err)
	}

	processor.AddReport(report)

	if !cfg.Quiet {
		fmt.Println("\n" + processor.GetSummary())
	}
}

// printBanner prints the tool banner unless quiet mode is enabled.
func printBanner(cfg *config.Config, candidates int) {
	if cfg.Quiet {
		return
	}

	banner := color.New(color.FgBlue, color.Bold).Sprint("🧵 FuzzKit v"+config.Version) +
		" · " + color.New(color.FgWhite, color.Bold).Sprint("Fuzzy String-Similarity Scoring")

	fmt.Println(banner)
	fmt.Printf("Candidates: %d | Algorithm: %s | Concurrency: %d\n",
		candidates, cfg.Algorithm, cfg.Concurrency)
}

// buildConfig translates CLI arguments into a Config.
func buildConfig(args CommandLineArgs) *config.Config {
	cfg := config.DefaultConfig()

	cfg.Algorithm = strings.ToLower(args.Algorithm)
	cfg.Concurrency = args.Concurrency
	cfg.CacheSize = args.CacheSize
	cfg.Prefilter = args.Prefilter
	cfg.MaxScore = args.MaxScore
	cfg.Limit = args.Limit

	cfg.Output = config.OutputFormat(strings.ToLower(args.Output))
	cfg.OutputFile = args.OutputFile
	cfg.Quiet = args.Quiet
	cfg.LogLevel = logLevelFromVerbosity(args.Verbose, args.Quiet)

	cfg.EnableAPI = args.Serve
	cfg.APIPort = args.APIPort
	cfg.APIKey = args.APIKey
	cfg.RateLimit = args.RateLimit
	cfg.RateLimitBurst = args.RateLimit

	return cfg
}

// buildCandidateList expands @file references and collects all candidates.
func buildCandidateList(args CommandLineArgs) []string {
	candidates := make([]string, 0, len(args.Candidates))

	for _, rawArg := range args.Candidates {
		if strings.HasPrefix(rawArg, "@") {
			filePath := strings.TrimPrefix(rawArg, "@")
			fileCandidates, err := readCandidatesFromFile(filePath)
			if err != nil {
				log.Fatalf("Failed to read candidate file: %v", err)
			}
			candidates = append(candidates, fileCandidates...)
		} else {
			candidates = append(candidates, rawArg)
		}
	}

	return candidates
}

// readCandidatesFromFile reads non-empty, non-comment lines from a candidate file.
func readCandidatesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", filePath, err)
	}
	defer file.Close()

	candidates := make([]string, 0)
	lineScanner := bufio.NewScanner(file)

	for lineScanner.Scan() {
		line := strings.TrimSpace(lineScanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		candidates = append(candidates, line)
	}

	if scanErr := lineScanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("read %q: %w", filePath, scanErr)
	}

	return candidates, nil
}

// logLevelFromVerbosity maps the -v count and -q flag to a LogLevel.
// Quiet wins over any verbosity.
func logLevelFromVerbosity(verbose int, quiet bool) config.LogLevel {
	if quiet {
		return config.LogQuiet
	}

	switch verbose {
	case 0:
		return config.LogWarn
	case 1:
		return config.LogInfo
	case 2:
		return config.LogDebug
	default:
		return config.LogTrace
	}
}

// setupLogging configures the logrus logger from the configured level.
func setupLogging(cfg *config.Config) {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
		DisableTimestamp:       true,
	})

	switch cfg.LogLevel {
	case config.LogQuiet:
		log.SetLevel(log.PanicLevel)
	case config.LogWarn:
		log.SetLevel(log.WarnLevel)
	case config.LogInfo:
		log.SetLevel(log.InfoLevel)
	case config.LogDebug:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.TraceLevel)
	}
}
