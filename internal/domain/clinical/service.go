package clinical

import (
	"context"
	"fmt"
	"strings"

	"github.com/ehr/insights/internal/platform/db"
)

// Fixed result strings. Empty results are reported with these placeholders,
// never as errors.
const (
	NoPatientRecord     = "No patient record found"
	NoRiskIndicators    = "No major risk indicators"
	FlagHighHbA1c       = "High HbA1c (possible diabetes)"
	FlagHighCholesterol = "High cholesterol"
	NoMedicationData    = "No data found"
	NoVisitData         = "No visit history available"
)

const (
	hba1cRiskThreshold       = 7.0
	cholesterolRiskThreshold = 200.0
)

// Service implements the read-only clinical domain functions. Each call runs
// on a single connection acquired from acq and released before returning.
type Service struct {
	repo Repository
	acq  db.Acquirer
}

// NewService wires the repository and the connection source. acq may be nil,
// in which case the repository uses its default pool.
func NewService(repo Repository, acq db.Acquirer) *Service {
	return &Service{repo: repo, acq: acq}
}

func (s *Service) scoped(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	var out string
	err := db.WithConn(ctx, s.acq, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// PatientSummary renders demographics, labs and diagnoses for one patient.
func (s *Service) PatientSummary(ctx context.Context, patientID int64) (string, error) {
	return s.scoped(ctx, func(ctx context.Context) (string, error) {
		patient, err := s.repo.GetPatient(ctx, patientID)
		if err != nil {
			return "", err
		}
		labs, err := s.repo.ListLabs(ctx, patientID, "")
		if err != nil {
			return "", err
		}
		diagnoses, err := s.repo.ListDiagnoses(ctx, patientID)
		if err != nil {
			return "", err
		}

		info := NoPatientRecord
		if patient != nil {
			info = patient.String()
		}

		var b strings.Builder
		fmt.Fprintf(&b, "PATIENT_ID: %d\n", patientID)
		fmt.Fprintf(&b, "Patient Info: %s\n\n", info)
		b.WriteString("Labs: ")
		writeRows(&b, labs)
		b.WriteString("\n\nDiagnoses: ")
		writeRows(&b, diagnoses)
		return b.String(), nil
	})
}

// RiskFlags checks every lab row against the HbA1c and cholesterol thresholds.
// Flags keep row order and repeat when several rows cross a threshold.
func (s *Service) RiskFlags(ctx context.Context, patientID int64) (string, error) {
	return s.scoped(ctx, func(ctx context.Context) (string, error) {
		labs, err := s.repo.ListLabs(ctx, patientID, "")
		if err != nil {
			return "", err
		}
		return riskFlags(labs), nil
	})
}

func riskFlags(labs []*LabResult) string {
	var risks []string
	for _, l := range labs {
		test := strings.ToLower(l.TestName)
		if test == "hba1c" && l.Value >= hba1cRiskThreshold {
			risks = append(risks, FlagHighHbA1c)
		}
		if test == "cholesterol" && l.Value > cholesterolRiskThreshold {
			risks = append(risks, FlagHighCholesterol)
		}
	}
	if len(risks) == 0 {
		return NoRiskIndicators
	}
	return strings.Join(risks, ", ")
}

// Medications lists the patient's medication history.
func (s *Service) Medications(ctx context.Context, patientID int64) (string, error) {
	return s.scoped(ctx, func(ctx context.Context) (string, error) {
		meds, err := s.repo.ListMedications(ctx, patientID)
		if err != nil {
			return "", err
		}
		return listing(fmt.Sprintf("Medications for patient %d: ", patientID), meds, NoMedicationData), nil
	})
}

// Visits lists the patient's hospital visits.
func (s *Service) Visits(ctx context.Context, patientID int64) (string, error) {
	return s.scoped(ctx, func(ctx context.Context) (string, error) {
		visits, err := s.repo.ListVisits(ctx, patientID)
		if err != nil {
			return "", err
		}
		return listing(fmt.Sprintf("Visit history for patient %d: ", patientID), visits, NoVisitData), nil
	})
}

func listing[T fmt.Stringer](prefix string, rows []T, empty string) string {
	if len(rows) == 0 {
		return prefix + empty
	}
	var b strings.Builder
	b.WriteString(prefix)
	writeRows(&b, rows)
	return b.String()
}

func writeRows[T fmt.Stringer](b *strings.Builder, rows []T) {
	if len(rows) == 0 {
		b.WriteString("none")
		return
	}
	for _, r := range rows {
		b.WriteString("\n  - ")
		b.WriteString(r.String())
	}
}
