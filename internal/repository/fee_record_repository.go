package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/fee-api/internal/models"
)

const feeRecordColumns = `id, student_id, fee_type, year, semester, due_amount, paid_amount, created_at, updated_at`

// LedgerMutation transforms a ledger snapshot into its successor state.
type LedgerMutation = func(models.FeeLedger) (models.FeeLedger, error)

// FeeRecordRepository manages persistence for fee records.
type FeeRecordRepository struct {
	db *sqlx.DB
}

// NewFeeRecordRepository constructs a FeeRecordRepository.
func NewFeeRecordRepository(db *sqlx.DB) *FeeRecordRepository {
	return &FeeRecordRepository{db: db}
}

// GetLedger fetches the complete fee ledger for a student.
func (r *FeeRecordRepository) GetLedger(ctx context.Context, studentID string) (models.FeeLedger, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_records WHERE student_id = $1 ORDER BY year DESC, semester DESC`, feeRecordColumns)
	var records []models.FeeRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return models.FeeLedger{}, fmt.Errorf("get ledger: %w", err)
	}
	return models.FeeLedger{StudentID: studentID, Records: records}, nil
}

// Mutate applies fn to the student's ledger inside one transaction. The
// ledger rows are locked for the duration so two concurrent mutations on
// the same student cannot both read the same snapshot and double-apply.
func (r *FeeRecordRepository) Mutate(ctx context.Context, studentID string, fn LedgerMutation) (models.FeeLedger, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.FeeLedger{}, fmt.Errorf("begin ledger mutation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`SELECT %s FROM fee_records WHERE student_id = $1 ORDER BY year DESC, semester DESC FOR UPDATE`, feeRecordColumns)
	var records []models.FeeRecord
	if err := tx.SelectContext(ctx, &records, query, studentID); err != nil {
		return models.FeeLedger{}, fmt.Errorf("lock ledger: %w", err)
	}

	next, err := fn(models.FeeLedger{StudentID: studentID, Records: records})
	if err != nil {
		return models.FeeLedger{}, err
	}

	now := time.Now().UTC()
	for i := range next.Records {
		rec := &next.Records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		const upsert = `INSERT INTO fee_records (id, student_id, fee_type, year, semester, due_amount, paid_amount, created_at, updated_at)
            VALUES (:id, :student_id, :fee_type, :year, :semester, :due_amount, :paid_amount, :created_at, :updated_at)
            ON CONFLICT (student_id, fee_type, year, semester)
            DO UPDATE SET due_amount = EXCLUDED.due_amount, paid_amount = EXCLUDED.paid_amount, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, upsert, rec); err != nil {
			return models.FeeLedger{}, fmt.Errorf("persist fee record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.FeeLedger{}, fmt.Errorf("commit ledger mutation: %w", err)
	}
	return next, nil
}

// GetLedgers fetches ledgers for multiple students in one round trip.
func (r *FeeRecordRepository) GetLedgers(ctx context.Context, studentIDs []string) (map[string]models.FeeLedger, error) {
	ledgers := make(map[string]models.FeeLedger, len(studentIDs))
	for _, id := range studentIDs {
		ledgers[id] = models.FeeLedger{StudentID: id}
	}
	if len(studentIDs) == 0 {
		return ledgers, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM fee_records WHERE student_id IN (?) ORDER BY year DESC, semester DESC`, feeRecordColumns),
		studentIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build ledger query: %w", err)
	}
	query = r.db.Rebind(query)

	var records []models.FeeRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("get ledgers: %w", err)
	}
	for _, rec := range records {
		ledger := ledgers[rec.StudentID]
		ledger.StudentID = rec.StudentID
		ledger.Records = append(ledger.Records, rec)
		ledgers[rec.StudentID] = ledger
	}
	return ledgers, nil
}
