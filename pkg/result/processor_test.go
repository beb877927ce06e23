package result_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fuzzkit/fuzzkit/pkg/config"
	"github.com/fuzzkit/fuzzkit/pkg/matcher"
	"github.com/fuzzkit/fuzzkit/pkg/result"
)

func testReport(needle string, matches ...matcher.Match) *matcher.Report {
	return &matcher.Report{
		Needle:     needle,
		Algorithm:  "ratio",
		Matches:    matches,
		Candidates: len(matches),
	}
}

// TestNewProcessorBadOutputFile verifies an uncreatable output file is
// reported at construction time.
func TestNewProcessorBadOutputFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputFile = filepath.Join(t.TempDir(), "missing-dir", "out.txt")

	if _, err := result.NewProcessor(cfg); err == nil {
		t.Fatal("expected error for uncreatable output file, got nil")
	}
}

// TestCSVHeaderWrittenOnce verifies the CSV header appears exactly once
// across multiple reports.
func TestCSVHeaderWrittenOnce(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputCSV
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.csv")

	proc, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatal(err)
	}

	proc.AddReport(testReport("kitten",
		matcher.Match{Candidate: "mitten", Score: 2.0 / 12.0, Rank: 1}))
	proc.AddReport(testReport("flaw",
		matcher.Match{Candidate: "lawn", Score: 0.5, Rank: 1}))
	proc.Close()

	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	headers := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "needle,algorithm,rank,candidate,score") {
			headers++
		}
	}
	if headers != 1 {
		t.Errorf("CSV header written %d times, want 1", headers)
	}
	if len(lines) != 3 {
		t.Errorf("CSV has %d lines, want 3 (header + 2 rows)", len(lines))
	}
}

// TestJSONOutputRoundTrips verifies JSON output parses back into a
// report.
func TestJSONOutputRoundTrips(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputJSON
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.json")

	proc, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatal(err)
	}

	proc.AddReport(testReport("kitten",
		matcher.Match{Candidate: "sitting", Score: 5.0 / 13.0, Rank: 1}))
	proc.Close()

	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}

	var parsed matcher.Report
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Needle != "kitten" || parsed.Algorithm != "ratio" {
		t.Errorf("parsed report = %+v", parsed)
	}
	if len(parsed.Matches) != 1 || parsed.Matches[0].Candidate != "sitting" {
		t.Errorf("parsed matches = %+v", parsed.Matches)
	}
}

// TestMarkdownOutputContainsTable verifies markdown output renders the
// match table.
func TestMarkdownOutputContainsTable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputMarkdown
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.md")

	proc, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatal(err)
	}

	proc.AddReport(testReport("kitten",
		matcher.Match{Candidate: "mitten", Score: 2.0 / 12.0, Rank: 1}))
	proc.Close()

	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}

	output := string(data)
	for _, want := range []string{"## Needle: kitten", "| Rank | Candidate | Score |", "`mitten`"} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

// TestGetSummary verifies the summary counts needles with and without
// matches.
func TestGetSummary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputJSON
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.json")

	proc, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer proc.Close()

	withMatches := testReport("kitten", matcher.Match{Candidate: "mitten", Rank: 1})
	withMatches.Candidates = 3

	without := testReport("xyzzy")
	without.Candidates = 2

	proc.AddReport(withMatches)
	proc.AddReport(without)

	want := "Ranking Summary: 2 needles, 1 with matches, 1 without, 5 candidates scored"
	if got := proc.GetSummary(); got != want {
		t.Errorf("GetSummary() = %q, want %q", got, want)
	}
}

// TestGetReportsSnapshot verifies reports are retrievable by needle and
// later reports replace earlier ones.
func TestGetReportsSnapshot(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputJSON
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.json")

	proc, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer proc.Close()

	proc.AddReport(testReport("kitten"))
	proc.AddReport(testReport("kitten", matcher.Match{Candidate: "mitten", Rank: 1}))

	reports := proc.GetReports()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if got := reports["kitten"]; got == nil || len(got.Matches) != 1 {
		t.Errorf("latest report not stored: %+v", got)
	}
}
