package clinical

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Patient maps to the patients table. Fields keeps every column of the row so
// that demographic columns added upstream show up without a code change.
type Patient struct {
	ID     int64          `db:"patient_id" json:"patient_id"`
	Name   string         `db:"name" json:"name"`
	Fields map[string]any `json:"fields"`
}

// LabResult maps to the labs table.
type LabResult struct {
	PatientID int64     `db:"patient_id" json:"patient_id"`
	TestName  string    `db:"test_name" json:"test_name"`
	Value     float64   `db:"value" json:"value"`
	Date      time.Time `db:"date" json:"date"`
}

// Diagnosis maps to the diagnoses table.
type Diagnosis struct {
	PatientID     int64      `db:"patient_id" json:"patient_id"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	DiagnosisDate *time.Time `db:"diagnosis_date" json:"diagnosis_date,omitempty"`
}

// Medication maps to the medications table.
type Medication struct {
	PatientID int64      `db:"patient_id" json:"patient_id"`
	DrugName  string     `db:"drug_name" json:"drug_name"`
	Dose      string     `db:"dose" json:"dose"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// Visit maps to the visits table.
type Visit struct {
	PatientID  int64      `db:"patient_id" json:"patient_id"`
	VisitDate  *time.Time `db:"visit_date" json:"visit_date,omitempty"`
	Department string     `db:"department" json:"department"`
	Physician  string     `db:"physician" json:"physician"`
	Reason     string     `db:"reason" json:"reason"`
}

// String renders the patient row as sorted key=value pairs.
func (p *Patient) String() string {
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(p.Fields[k])))
	}
	return strings.Join(parts, ", ")
}

func (l *LabResult) String() string {
	return fmt.Sprintf("%s %s: %.1f", l.Date.Format(dateLayout), l.TestName, l.Value)
}

func (d *Diagnosis) String() string {
	return fmt.Sprintf("%s (diagnosed %s)", d.Diagnosis, formatDate(d.DiagnosisDate, "unknown"))
}

func (m *Medication) String() string {
	dose := m.Dose
	if dose == "" {
		dose = "dose not recorded"
	}
	return fmt.Sprintf("%s %s (%s to %s)", m.DrugName, dose,
		formatDate(m.StartDate, "unknown"), formatDate(m.EndDate, "ongoing"))
}

func (v *Visit) String() string {
	return fmt.Sprintf("%s %s with %s: %s", formatDate(v.VisitDate, "unknown date"),
		orDash(v.Department), orDash(v.Physician), orDash(v.Reason))
}

func formatDate(t *time.Time, missing string) string {
	if t == nil {
		return missing
	}
	return t.Format(dateLayout)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return x.Format(dateLayout)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
