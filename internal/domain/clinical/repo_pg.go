package clinical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/ehr/insights/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	q      queryable
	logger zerolog.Logger
}

// NewRepoPG builds the Postgres repository. q is normally the process pool;
// calls made inside db.WithConn use the scoped connection instead.
func NewRepoPG(q queryable, logger zerolog.Logger) Repository {
	return &repoPG{q: q, logger: logger}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.q
}

func (r *repoPG) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT * FROM patients WHERE patient_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query patient %d: %w", id, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect patient %d: %w", id, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	p := &Patient{ID: id, Fields: records[0]}
	if name, ok := p.Fields["name"].(string); ok {
		p.Name = name
	}
	return p, nil
}

func (r *repoPG) FindPatientIDByName(ctx context.Context, lowerName string) (int64, bool, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT patient_id FROM patients WHERE lower(name) = $1 LIMIT 1`, lowerName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find patient by name: %w", err)
	}
	return id, true, nil
}

func (r *repoPG) ListLabs(ctx context.Context, patientID int64, testName string) ([]*LabResult, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if testName == "" {
		rows, err = r.conn(ctx).Query(ctx, `
			SELECT test_name, value, date FROM labs
			WHERE patient_id = $1
			ORDER BY date, test_name`, patientID)
	} else {
		rows, err = r.conn(ctx).Query(ctx, `
			SELECT test_name, value, date FROM labs
			WHERE patient_id = $1 AND lower(test_name) = lower($2)
			ORDER BY date`, patientID, testName)
	}
	if err != nil {
		return nil, fmt.Errorf("query labs: %w", err)
	}
	defer rows.Close()

	var items []*LabResult
	for rows.Next() {
		var (
			name string
			raw  any
			date *time.Time
		)
		if err := rows.Scan(&name, &raw, &date); err != nil {
			return nil, fmt.Errorf("scan lab: %w", err)
		}
		value, ok := labValue(raw)
		if !ok || date == nil {
			r.logger.Warn().
				Int64("patient_id", patientID).
				Str("test_name", name).
				Interface("value", raw).
				Msg("skipping lab row with unusable value or date")
			continue
		}
		items = append(items, &LabResult{PatientID: patientID, TestName: name, Value: value, Date: *date})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labs: %w", err)
	}
	return items, nil
}

func (r *repoPG) ListDiagnoses(ctx context.Context, patientID int64) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT diagnosis, diagnosis_date FROM diagnoses
		WHERE patient_id = $1
		ORDER BY diagnosis_date NULLS LAST`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}
	defer rows.Close()

	var items []*Diagnosis
	for rows.Next() {
		d := &Diagnosis{PatientID: patientID}
		if err := rows.Scan(&d.Diagnosis, &d.DiagnosisDate); err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnoses: %w", err)
	}
	return items, nil
}

func (r *repoPG) ListMedications(ctx context.Context, patientID int64) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT drug_name, dose, start_date, end_date FROM medications
		WHERE patient_id = $1
		ORDER BY start_date NULLS LAST`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	defer rows.Close()

	var items []*Medication
	for rows.Next() {
		m := &Medication{PatientID: patientID}
		var dose *string
		if err := rows.Scan(&m.DrugName, &dose, &m.StartDate, &m.EndDate); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		m.Dose = strVal(dose)
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medications: %w", err)
	}
	return items, nil
}

func (r *repoPG) ListVisits(ctx context.Context, patientID int64) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT visit_date, department, physician, reason FROM visits
		WHERE patient_id = $1
		ORDER BY visit_date NULLS LAST`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var items []*Visit
	for rows.Next() {
		v := &Visit{PatientID: patientID}
		var dept, physician, reason *string
		if err := rows.Scan(&v.VisitDate, &dept, &physician, &reason); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Department, v.Physician, v.Reason = strVal(dept), strVal(physician), strVal(reason)
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return items, nil
}

// labValue converts a decoded value column to float64. NULL, non-numeric text
// and non-finite numbers are rejected.
func labValue(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case int16:
		f = float64(v)
	case int:
		f = float64(v)
	case pgtype.Numeric:
		fv, err := v.Float64Value()
		if err != nil || !fv.Valid {
			return 0, false
		}
		f = fv.Float64
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
