package clinical

import (
	"context"
	"strings"
)

const (
	LifestyleHeader      = "**Lifestyle Recommendations:**"
	LifestyleReassurance = "No critical health risks identified. Maintain a balanced diet and regular activity."
)

var (
	diabetesAdvice = []string{
		"• Reduce sugar and refined carb intake.",
		"• Exercise 30 minutes daily (e.g., walking, cycling).",
		"• Consider a Mediterranean or DASH diet.",
	}
	hypertensionAdvice = []string{
		"• Reduce sodium to less than 1500 mg/day.",
		"• Avoid processed foods; eat fruits, vegetables, whole grains.",
		"• Manage stress using relaxation or mindfulness techniques.",
	}
	hyperlipidemiaAdvice = []string{
		"• Limit saturated fats and increase fiber intake.",
		"• Engage in regular aerobic exercise.",
		"• Consider omega-3 fatty acids through diet or supplements.",
	}
	obesityAdvice = []string{
		"• Monitor calorie intake and engage in weight-loss planning.",
		"• Incorporate strength training twice a week.",
	}
)

// LifestyleSuggestions applies the four rule blocks to the patient's
// diagnoses and latest lab values.
func (s *Service) LifestyleSuggestions(ctx context.Context, patientID int64) (string, error) {
	return s.scoped(ctx, func(ctx context.Context) (string, error) {
		diagnoses, err := s.repo.ListDiagnoses(ctx, patientID)
		if err != nil {
			return "", err
		}
		labs, err := s.repo.ListLabs(ctx, patientID, "")
		if err != nil {
			return "", err
		}

		lines := Suggest(diagnosisSet(diagnoses), LatestLabValues(labs))
		if len(lines) == 0 {
			return LifestyleReassurance, nil
		}
		return LifestyleHeader + "\n" + strings.Join(lines, "\n"), nil
	})
}

// Suggest evaluates the rule blocks independently. A lab missing from labs
// counts as 0.
func Suggest(dx map[string]bool, labs map[string]float64) []string {
	var lines []string
	if dx["type 2 diabetes"] || labs["hba1c"] >= 6.5 {
		lines = append(lines, diabetesAdvice...)
	}
	if dx["hypertension"] || labs["cholesterol"] >= 200 {
		lines = append(lines, hypertensionAdvice...)
	}
	if dx["hyperlipidemia"] {
		lines = append(lines, hyperlipidemiaAdvice...)
	}
	if dx["obesity"] {
		lines = append(lines, obesityAdvice...)
	}
	return lines
}

// LatestLabValues maps lower-cased test names to their most recent reading.
// On equal dates the later row wins.
func LatestLabValues(labs []*LabResult) map[string]float64 {
	values := make(map[string]float64, len(labs))
	seen := make(map[string]*LabResult, len(labs))
	for _, l := range labs {
		key := strings.ToLower(l.TestName)
		if prev, ok := seen[key]; ok && l.Date.Before(prev.Date) {
			continue
		}
		seen[key] = l
		values[key] = l.Value
	}
	return values
}

func diagnosisSet(diagnoses []*Diagnosis) map[string]bool {
	set := make(map[string]bool, len(diagnoses))
	for _, d := range diagnoses {
		set[strings.ToLower(d.Diagnosis)] = true
	}
	return set
}
