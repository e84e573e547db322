package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// CheckResult is the outcome of checking one entity
type CheckResult struct {
	Entity   string          `json:"entity"`
	Passed   bool            `json:"passed"`
	Count    json.RawMessage `json:"count,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// CheckReport is the full check report
type CheckReport struct {
	Timestamp   time.Time     `json:"timestamp"`
	BaseURL     string        `json:"base_url"`
	TotalTests  int           `json:"total_tests"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"success_rate"`
	Results     []CheckResult `json:"results"`
}

func cmdCheck(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("check", "check [-output dir] <entity>...")
	outputDir := fs.String("output", "", "Directory to save the JSON report in")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("check needs at least one entity")
	}

	report := &CheckReport{
		Timestamp: time.Now(),
		BaseURL:   a.client.BaseURL(),
		Results:   make([]CheckResult, 0, fs.NArg()),
	}

	for _, entity := range fs.Args() {
		result := a.checkEntity(ctx, entity)
		report.Results = append(report.Results, result)

		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	report.TotalTests = len(report.Results)
	if report.TotalTests > 0 {
		report.SuccessRate = float64(report.Passed) / float64(report.TotalTests) * 100
	}

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
		path := filepath.Join(*outputDir, fmt.Sprintf("check_report_%d.json", report.Timestamp.Unix()))
		if err := saveReport(report, path); err != nil {
			return errors.Wrap(err, "failed to save report")
		}
		fmt.Fprintf(a.stderr, "Report saved to: %s\n", path)
	}

	printSummary(a.stdout, report)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d checks failed", report.Failed, report.TotalTests)
	}
	return nil
}

// checkEntity counts the entity's entries, which needs read access and nothing more
func (a *app) checkEntity(ctx context.Context, entity string) CheckResult {
	start := time.Now()
	result := CheckResult{Entity: entity}

	var count json.RawMessage
	err := a.client.Entries.Count(ctx, entity, nil, &count)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		a.logger.Debug().Err(err).Str("entity", entity).Msg("Check failed")
		return result
	}

	result.Passed = true
	result.Count = count
	return result
}

func saveReport(report *CheckReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printSummary(w io.Writer, report *CheckReport) {
	fmt.Fprintln(w, "=== Check Report ===")
	fmt.Fprintf(w, "Total Checks: %d\n", report.TotalTests)
	fmt.Fprintf(w, "Passed: %d\n", report.Passed)
	fmt.Fprintf(w, "Failed: %d\n", report.Failed)
	fmt.Fprintf(w, "Success Rate: %.1f%%\n", report.SuccessRate)

	if report.Failed > 0 {
		fmt.Fprintln(w, "\nFailed Checks:")
		for _, result := range report.Results {
			if !result.Passed {
				fmt.Fprintf(w, "  - %s: %s\n", result.Entity, result.Error)
			}
		}
	}
}
