// ------------------------------------------------------
// FuzzKit - Result Processor
// Ranked-match output in multiple formats
// ------------------------------------------------------

package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/fuzzkit/fuzzkit/pkg/config"
	"github.com/fuzzkit/fuzzkit/pkg/matcher"
)

// Processor handles ranking output and summary bookkeeping.
// It is safe for concurrent use.
type Processor struct {
	cfg              *config.Config
	reports          map[string]*matcher.Report
	mu               sync.RWMutex
	outputFile       *os.File
	csvWriter        *csv.Writer
	csvHeaderWritten bool // ensures the CSV header is written exactly once
}

// NewProcessor creates a new Processor.
// Returns an error if an output file is configured but cannot be created.
func NewProcessor(cfg *config.Config) (*Processor, error) {
	proc := &Processor{
		cfg:     cfg,
		reports: make(map[string]*matcher.Report),
	}

	if cfg.OutputFile != "" {
		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			return nil, fmt.Errorf("create output file %q: %w", cfg.OutputFile, err)
		}
		proc.outputFile = file

		if cfg.Output == config.OutputCSV {
			proc.csvWriter = csv.NewWriter(file)
		}
	}

	return proc, nil
}

// AddReport stores a ranking report and immediately writes output.
// A later report for the same needle replaces the earlier one in the
// summary but both are written out.
func (p *Processor) AddReport(report *matcher.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reports[report.Needle] = report
	p.writeReport(report)
}

// writeReport dispatches to the appropriate format writer.
// Must be called with p.mu held.
func (p *Processor) writeReport(report *matcher.Report) {
	switch p.cfg.Output {
	case config.OutputJSON:
		p.writeJSON(report)
	case config.OutputCSV:
		p.writeCSV(report)
	case config.OutputMarkdown:
		p.writeMarkdown(report)
	default:
		p.writeHuman(report)
	}
}

// writeHuman writes human-readable output with ANSI colours.
func (p *Processor) writeHuman(report *matcher.Report) {
	out := p.writer()

	fmt.Fprintln(out, "\n════════════════════════════════════════════════════════════════════════════════")
	fmt.Fprintf(out, "Needle: %s\n", color.New(color.FgCyan, color.Bold).Sprint(report.Needle))
	fmt.Fprintf(out, "Algorithm: %s | Candidates: %d", report.Algorithm, report.Candidates)
	if report.Prefiltered > 0 {
		fmt.Fprintf(out, " (%d prefiltered)", report.Prefiltered)
	}
	fmt.Fprintln(out)

	if len(report.Matches) == 0 {
		fmt.Fprintln(out, "No matches within the score cutoff")
	} else {
		fmt.Fprintln(out, "\n  Matches:")
		for _, match := range report.Matches {
			fmt.Fprintf(out, "    %2d. %s  %s\n",
				match.Rank,
				color.New(color.FgGreen).Sprint(match.Candidate),
				color.New(color.FgYellow).Sprintf("%.4f", match.Score),
			)
		}
	}

	fmt.Fprintln(out, "════════════════════════════════════════════════════════════════════════════════")
}

// writeJSON marshals the report to indented JSON.
func (p *Processor) writeJSON(report *matcher.Report) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Errorf("JSON marshal failed for %q: %v", report.Needle, err)
		return
	}

	out := p.writer()
	if _, writeErr := fmt.Fprintf(out, "%s\n", data); writeErr != nil {
		log.Errorf("JSON write failed: %v", writeErr)
	}
}

// writeCSV writes one row per match; the header is written exactly once.
func (p *Processor) writeCSV(report *matcher.Report) {
	writer := p.csvWriter
	if writer == nil {
		// No output file configured — stream CSV to stdout.
		writer = csv.NewWriter(os.Stdout)
	}

	if !p.csvHeaderWritten {
		header := []string{"needle", "algorithm", "rank", "candidate", "score"}
		if err := writer.Write(header); err != nil {
			log.Errorf("CSV header write failed: %v", err)
			return
		}
		p.csvHeaderWritten = true
	}

	for _, match := range report.Matches {
		row := []string{
			report.Needle,
			report.Algorithm,
			fmt.Sprintf("%d", match.Rank),
			match.Candidate,
			fmt.Sprintf("%.6f", match.Score),
		}
		if err := writer.Write(row); err != nil {
			log.Errorf("CSV row write failed: %v", err)
		}
	}
	writer.Flush()
}

// writeMarkdown writes Markdown-formatted output.
func (p *Processor) writeMarkdown(report *matcher.Report) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Needle: %s\n\n", report.Needle))
	sb.WriteString(fmt.Sprintf("- **Algorithm**: %s\n", report.Algorithm))
	sb.WriteString(fmt.Sprintf("- **Candidates**: %d\n", report.Candidates))
	sb.WriteString(fmt.Sprintf("- **Duration**: %v\n", report.Duration))

	if len(report.Matches) > 0 {
		sb.WriteString("\n| Rank | Candidate | Score |\n")
		sb.WriteString("|------|-----------|-------|\n")
		for _, match := range report.Matches {
			sb.WriteString(fmt.Sprintf("| %d | `%s` | %.4f |\n", match.Rank, match.Candidate, match.Score))
		}
	}
	sb.WriteString("\n")

	out := p.writer()
	if _, err := fmt.Fprint(out, sb.String()); err != nil {
		log.Errorf("Markdown write failed: %v", err)
	}
}

// writer returns the configured output destination (file or stdout).
func (p *Processor) writer() *os.File {
	if p.outputFile != nil {
		return p.outputFile
	}
	return os.Stdout
}

// GetReports returns a snapshot of all stored reports keyed by needle.
func (p *Processor) GetReports() map[string]*matcher.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make(map[string]*matcher.Report, len(p.reports))
	for k, v := range p.reports {
		snapshot[k] = v
	}
	return snapshot
}

// GetSummary returns a one-line summary of all rankings.
func (p *Processor) GetSummary() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var matched, unmatched, candidates int

	for _, report := range p.reports {
		candidates += report.Candidates
		if len(report.Matches) > 0 {
			matched++
		} else {
			unmatched++
		}
	}

	return fmt.Sprintf(
		"Ranking Summary: %d needles, %d with matches, %d without, %d candidates scored",
		len(p.reports), matched, unmatched, candidates,
	)
}

// Close flushes and closes all open output writers.
func (p *Processor) Close() {
	if p.csvWriter != nil {
		p.csvWriter.Flush()
	}
	if p.outputFile != nil {
		if err := p.outputFile.Close(); err != nil {
			log.Errorf("close output file: %v", err)
		}
	}
}
