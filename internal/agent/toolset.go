package agent

import (
	"context"

	"github.com/ehr/insights/internal/domain/clinical"
)

// Tool names as exposed to the model.
const (
	ToolQueryPatientData        = "QueryPatientData"
	ToolCheckRiskFactors        = "CheckRiskFactors"
	ToolQueryMedications        = "QueryMedications"
	ToolQueryVisits             = "QueryVisits"
	ToolAnalyzeTrends           = "AnalyzeTrends"
	ToolSuggestLifestyleChanges = "SuggestLifestyleChanges"
)

// PatientResolver extracts a patient id from free text.
type PatientResolver interface {
	Resolve(ctx context.Context, text string) (int64, bool, error)
}

// ClinicalQueries is the set of domain functions the tools expose.
type ClinicalQueries interface {
	PatientSummary(ctx context.Context, patientID int64) (string, error)
	RiskFlags(ctx context.Context, patientID int64) (string, error)
	Medications(ctx context.Context, patientID int64) (string, error)
	Visits(ctx context.Context, patientID int64) (string, error)
	TrendSummary(ctx context.Context, patientID int64, testName string) (string, error)
	LifestyleSuggestions(ctx context.Context, patientID int64) (string, error)
}

// ClinicalTools builds the six clinical tools. Each resolves the patient
// first and answers with its own failure text when no patient is found.
func ClinicalTools(resolver PatientResolver, q ClinicalQueries) []Tool {
	return []Tool{
		patientTool(resolver, ToolQueryPatientData,
			"Fetch patient demographics, labs, and diagnoses.",
			"Please specify a valid patient name or ID.",
			func(ctx context.Context, id int64, _ string) (string, error) {
				return q.PatientSummary(ctx, id)
			}),
		patientTool(resolver, ToolCheckRiskFactors,
			"Analyze lab values for potential health risks using patient ID.",
			"Could not determine patient ID for risk scoring.",
			func(ctx context.Context, id int64, _ string) (string, error) {
				return q.RiskFlags(ctx, id)
			}),
		patientTool(resolver, ToolQueryMedications,
			"Fetch medication history.",
			"No valid patient ID or name found.",
			func(ctx context.Context, id int64, _ string) (string, error) {
				return q.Medications(ctx, id)
			}),
		patientTool(resolver, ToolQueryVisits,
			"Fetch hospital visit summaries.",
			"Visit data unavailable without patient info.",
			func(ctx context.Context, id int64, _ string) (string, error) {
				return q.Visits(ctx, id)
			}),
		patientTool(resolver, ToolAnalyzeTrends,
			"Detect trends or patterns in lab results over time using patient ID.",
			"Could not analyze trends without valid patient.",
			func(ctx context.Context, id int64, input string) (string, error) {
				return q.TrendSummary(ctx, id, clinical.ExtractTestName(input))
			}),
		patientTool(resolver, ToolSuggestLifestyleChanges,
			"Suggest lifestyle or clinical advice based on labs and diagnoses.",
			"Invalid patient reference.",
			func(ctx context.Context, id int64, _ string) (string, error) {
				return q.LifestyleSuggestions(ctx, id)
			}),
	}
}

type patientFunc func(ctx context.Context, patientID int64, input string) (string, error)

func patientTool(resolver PatientResolver, name, description, unresolved string, fn patientFunc) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Invoke: func(ctx context.Context, input string) (string, error) {
			id, ok, err := resolver.Resolve(ctx, input)
			if err != nil {
				toolInvocationsTotal.WithLabelValues(name, OutcomeError).Inc()
				return "", err
			}
			if !ok {
				toolInvocationsTotal.WithLabelValues(name, OutcomeUnresolved).Inc()
				return unresolved, nil
			}
			out, err := fn(ctx, id, input)
			if err != nil {
				toolInvocationsTotal.WithLabelValues(name, OutcomeError).Inc()
				return "", err
			}
			toolInvocationsTotal.WithLabelValues(name, OutcomeOK).Inc()
			return out, nil
		},
	}
}
