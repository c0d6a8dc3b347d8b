package clinical

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// knownLabTests are the test names recognised in free text, in match priority.
var knownLabTests = []string{"HbA1c", "Cholesterol", "LDL", "HDL", "Triglycerides", "Glucose"}

// ExtractTestName returns the first known lab test mentioned in text, or "".
func ExtractTestName(text string) string {
	lower := strings.ToLower(text)
	for _, t := range knownLabTests {
		if strings.Contains(lower, strings.ToLower(t)) {
			return t
		}
	}
	return ""
}

// Direction of change between the first and last value of a test.
const (
	DirectionIncreased = "increased"
	DirectionDecreased = "decreased"
	DirectionStable    = "remained stable"
)

// TestTrend is one test's values in date order and its first-to-last change.
type TestTrend struct {
	TestName  string
	Points    []*LabResult
	Delta     float64
	Direction string
}

// TrendSummary reports, per test, the dated values and the change from the
// first to the last reading. testName narrows the report to a single test.
func (s *Service) TrendSummary(ctx context.Context, patientID int64, testName string) (string, error) {
	return s.scoped(ctx, func(ctx context.Context) (string, error) {
		labs, err := s.repo.ListLabs(ctx, patientID, testName)
		if err != nil {
			return "", err
		}
		if len(labs) == 0 {
			msg := fmt.Sprintf("No lab data found for patient %d", patientID)
			if testName != "" {
				msg += fmt.Sprintf(" and test '%s'", testName)
			}
			return msg, nil
		}
		return renderTrends(ComputeTrends(labs)), nil
	})
}

// ComputeTrends groups labs by test name (groups sorted by name) and sorts each
// group by date. Direction uses a strict sign comparison on the delta.
func ComputeTrends(labs []*LabResult) []TestTrend {
	groups := make(map[string][]*LabResult)
	for _, l := range labs {
		groups[l.TestName] = append(groups[l.TestName], l)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	trends := make([]TestTrend, 0, len(names))
	for _, name := range names {
		points := groups[name]
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

		delta := points[len(points)-1].Value - points[0].Value
		direction := DirectionStable
		switch {
		case delta > 0:
			direction = DirectionIncreased
		case delta < 0:
			direction = DirectionDecreased
		}
		trends = append(trends, TestTrend{TestName: name, Points: points, Delta: delta, Direction: direction})
	}
	return trends
}

func renderTrends(trends []TestTrend) string {
	blocks := make([]string, 0, len(trends))
	for _, t := range trends {
		var b strings.Builder
		fmt.Fprintf(&b, "**%s Trends**:\n", t.TestName)
		for _, p := range t.Points {
			fmt.Fprintf(&b, "  - %s: %.1f\n", p.Date.Format(dateLayout), p.Value)
		}
		fmt.Fprintf(&b, "%s has %s by %.1f over the period.\n", t.TestName, t.Direction, math.Abs(t.Delta))
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
