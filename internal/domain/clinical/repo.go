package clinical

import "context"

// Repository is the read-only data access layer over the clinical store.
type Repository interface {
	// GetPatient returns (nil, nil) when no row matches.
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	// FindPatientIDByName matches lower(name) exactly against lowerName.
	FindPatientIDByName(ctx context.Context, lowerName string) (int64, bool, error)
	// ListLabs returns labs ordered by date. An empty testName returns every
	// test; otherwise the name is matched case-insensitively.
	ListLabs(ctx context.Context, patientID int64, testName string) ([]*LabResult, error)
	ListDiagnoses(ctx context.Context, patientID int64) ([]*Diagnosis, error)
	ListMedications(ctx context.Context, patientID int64) ([]*Medication, error)
	ListVisits(ctx context.Context, patientID int64) ([]*Visit, error)
}
