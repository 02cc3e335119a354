// Command billing_compare requests the same billing months from two
// deployments and reports per-academy differences. It exits non-zero when a
// critical month differs.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type target struct {
	Year     int  `yaml:"year"`
	Month    int  `yaml:"month"`
	Critical bool `yaml:"critical"`
}

type config struct {
	Targets []target `yaml:"targets"`
}

type studentLine struct {
	ID         string `json:"id"`
	ActiveDays int    `json:"activeDays"`
	IsBillable bool   `json:"isBillable"`
}

type report struct {
	Name             string        `json:"name"`
	TotalStudents    int           `json:"totalStudents"`
	BillableStudents int           `json:"billableStudents"`
	TotalCost        float64       `json:"totalCost"`
	BillingType      string        `json:"billingType"`
	Students         []studentLine `json:"students"`
}

type comparison struct {
	Target            target
	CandidateStatus   int
	ReferenceStatus   int
	Diffs             []string
	Error             error
	DurationCandidate time.Duration
	DurationReference time.Duration
}

func main() {
	var (
		candidateBase string
		referenceBase string
		targetsPath   string
		token         string
		timeout       time.Duration
	)

	flag.StringVar(&candidateBase, "candidate-base", "http://localhost:8080/api/v1", "Candidate API base URL")
	flag.StringVar(&referenceBase, "reference-base", "http://localhost:3000/api/v1", "Reference API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "billing_compare", "targets.yaml"), "Path to YAML targets file")
	flag.StringVar(&token, "token", os.Getenv("BILLING_COMPARE_TOKEN"), "Super admin bearer token")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := compareMonth(client, candidateBase, referenceBase, token, t)
		if comp.Error != nil || len(comp.Diffs) > 0 {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareMonth(client *http.Client, candidateBase, referenceBase, token string, tgt target) comparison {
	comp := comparison{Target: tgt}
	candidate, candStatus, candDur, err := fetchStats(client, candidateBase, token, tgt)
	comp.CandidateStatus, comp.DurationCandidate = candStatus, candDur
	if err != nil {
		comp.Error = fmt.Errorf("candidate: %w", err)
		return comp
	}
	reference, refStatus, refDur, err := fetchStats(client, referenceBase, token, tgt)
	comp.ReferenceStatus, comp.DurationReference = refStatus, refDur
	if err != nil {
		comp.Error = fmt.Errorf("reference: %w", err)
		return comp
	}
	comp.Diffs = diffReports(candidate, reference)
	return comp
}

func fetchStats(client *http.Client, base, token string, tgt target) (map[string]report, int, time.Duration, error) {
	if client == nil {
		return nil, 0, 0, errors.New("nil client")
	}
	url := fmt.Sprintf("%s/admin/billing-stats?year=%d&month=%d", strings.TrimRight(base, "/"), tgt.Year, tgt.Month)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var reports map[string]report
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("decode body: %w", err)
	}
	return reports, resp.StatusCode, elapsed, nil
}

// diffReports compares totals and per-student outcomes. Student order is ignored.
func diffReports(candidate, reference map[string]report) []string {
	var diffs []string
	for _, id := range unionKeys(candidate, reference) {
		c, inCandidate := candidate[id]
		r, inReference := reference[id]
		switch {
		case !inCandidate:
			diffs = append(diffs, fmt.Sprintf("%s: missing from candidate", id))
			continue
		case !inReference:
			diffs = append(diffs, fmt.Sprintf("%s: missing from reference", id))
			continue
		}
		if c.TotalStudents != r.TotalStudents {
			diffs = append(diffs, fmt.Sprintf("%s: totalStudents %d != %d", id, c.TotalStudents, r.TotalStudents))
		}
		if c.BillableStudents != r.BillableStudents {
			diffs = append(diffs, fmt.Sprintf("%s: billableStudents %d != %d", id, c.BillableStudents, r.BillableStudents))
		}
		if c.TotalCost != r.TotalCost {
			diffs = append(diffs, fmt.Sprintf("%s: totalCost %.2f != %.2f", id, c.TotalCost, r.TotalCost))
		}
		if c.BillingType != r.BillingType {
			diffs = append(diffs, fmt.Sprintf("%s: billingType %s != %s", id, c.BillingType, r.BillingType))
		}

		refLines := make(map[string]studentLine, len(r.Students))
		for _, line := range r.Students {
			refLines[line.ID] = line
		}
		for _, line := range c.Students {
			ref, ok := refLines[line.ID]
			if !ok {
				diffs = append(diffs, fmt.Sprintf("%s/%s: missing from reference", id, line.ID))
				continue
			}
			if line.ActiveDays != ref.ActiveDays || line.IsBillable != ref.IsBillable {
				diffs = append(diffs, fmt.Sprintf("%s/%s: activeDays %d/%t != %d/%t", id, line.ID, line.ActiveDays, line.IsBillable, ref.ActiveDays, ref.IsBillable))
			}
			delete(refLines, line.ID)
		}
		for studentID := range refLines {
			diffs = append(diffs, fmt.Sprintf("%s/%s: missing from candidate", id, studentID))
		}
	}
	sort.Strings(diffs)
	return diffs
}

func unionKeys(a, b map[string]report) []string {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func printReport(results []comparison) {
	fmt.Println("Billing Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if len(res.Diffs) > 0 {
			status = "DIFF"
		}
		fmt.Printf("[%s] %04d-%02d (critical: %t)\n", status, res.Target.Year, res.Target.Month, res.Target.Critical)
		fmt.Printf("  Candidate: %d (%s) | Reference: %d (%s)\n", res.CandidateStatus, res.DurationCandidate, res.ReferenceStatus, res.DurationReference)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		for _, d := range res.Diffs {
			fmt.Printf("  - %s\n", d)
		}
	}
}
