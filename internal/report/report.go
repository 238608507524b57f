package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"metaregistryCheck/internal/model"
)

// SuiteSummary tallies one suite.
type SuiteSummary struct {
	Suite    string
	Outcomes map[model.Outcome]int
	// Reasons counts reasons per outcome, e.g. Reasons[skip]["empty"].
	Reasons map[model.Outcome]map[string]int
}

func (s *SuiteSummary) add(res model.CaseResult) {
	s.Outcomes[res.Outcome]++
	if res.Reason == "" {
		return
	}
	if s.Reasons[res.Outcome] == nil {
		s.Reasons[res.Outcome] = make(map[string]int)
	}
	s.Reasons[res.Outcome][res.Reason]++
}

// Summary is the tally of a results file.
type Summary struct {
	Total     int
	Malformed int
	Outcomes  map[model.Outcome]int
	Suites    map[string]*SuiteSummary
	// Failures keeps every failed or errored case in file order.
	Failures []model.CaseResult
}

// Failed reports whether any case failed.
func (s Summary) Failed() bool {
	return s.Outcomes[model.OutcomeFail] > 0
}

// SuiteNames returns suite names in sorted order.
func (s Summary) SuiteNames() []string {
	names := make([]string, 0, len(s.Suites))
	for name := range s.Suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summarize reads CaseResult JSON lines from r. Blank lines are ignored and
// undecodable lines are counted as malformed.
func Summarize(r io.Reader) (Summary, error) {
	summary := Summary{
		Outcomes: make(map[model.Outcome]int),
		Suites:   make(map[string]*SuiteSummary),
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var res model.CaseResult
		if err := json.Unmarshal(line, &res); err != nil || res.Outcome == "" {
			summary.Malformed++
			continue
		}

		summary.Total++
		summary.Outcomes[res.Outcome]++

		suite, ok := summary.Suites[res.Suite]
		if !ok {
			suite = &SuiteSummary{
				Suite:    res.Suite,
				Outcomes: make(map[model.Outcome]int),
				Reasons:  make(map[model.Outcome]map[string]int),
			}
			summary.Suites[res.Suite] = suite
		}
		suite.add(res)

		if res.Outcome == model.OutcomeFail || res.Outcome == model.OutcomeError {
			summary.Failures = append(summary.Failures, res)
		}
	}

	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan results: %w", err)
	}
	return summary, nil
}
