package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
	"github.com/campusops/fee-api/internal/service"
	"github.com/campusops/fee-api/pkg/response"
)

type fakeLedgerStore struct {
	ledgers map[string]models.FeeLedger
}

func (f *fakeLedgerStore) GetLedger(ctx context.Context, studentID string) (models.FeeLedger, error) {
	return f.ledgers[studentID], nil
}

func (f *fakeLedgerStore) Mutate(ctx context.Context, studentID string, fn func(models.FeeLedger) (models.FeeLedger, error)) (models.FeeLedger, error) {
	next, err := fn(f.ledgers[studentID])
	if err != nil {
		return models.FeeLedger{}, err
	}
	f.ledgers[studentID] = next
	return next, nil
}

type fakeStudentReader struct {
	students map[string]*models.Student
}

func (f *fakeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return f.students[id], nil
}

func (f *fakeStudentReader) ListCohort(ctx context.Context, department, batch string, year int, quota models.Quota) ([]models.Student, error) {
	return nil, nil
}

func newFeeHandlerFixture() (*FeeHandler, *fakeLedgerStore) {
	store := &fakeLedgerStore{ledgers: map[string]models.FeeLedger{
		"stu-1": {StudentID: "stu-1", Records: []models.FeeRecord{
			{StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 0},
		}},
	}}
	fees := service.NewFeeService(store, &fakeStudentReader{}, nil, nil, nil)
	return NewFeeHandler(fees, service.NewMetricsService()), store
}

func TestFeeHandlerApplyConcession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newFeeHandlerFixture()

	body, _ := json.Marshal(service.ConcessionRequest{
		StudentID: "stu-1",
		Year:      1,
		FeeType:   models.FeeTypeCollege,
		Amount:    10000,
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/concession", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.ApplyConcession(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(40000), store.ledgers["stu-1"].Records[0].DueAmount)
}

func TestFeeHandlerApplyConcessionRejectsExcess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newFeeHandlerFixture()

	body, _ := json.Marshal(service.ConcessionRequest{
		StudentID: "stu-1",
		Year:      1,
		FeeType:   models.FeeTypeCollege,
		Amount:    60000,
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/concession", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.ApplyConcession(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestFeeHandlerApplyConcessionBadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newFeeHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/concession", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.ApplyConcession(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeeHandlerMarkFullyPaid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newFeeHandlerFixture()

	body, _ := json.Marshal(service.MarkPaidRequest{
		StudentID: "stu-1",
		Year:      1,
		FeeType:   models.FeeTypeCollege,
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/mark-paid", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.MarkFullyPaid(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	record := store.ledgers["stu-1"].Records[0]
	assert.Equal(t, models.FeeStatusPaid, record.Status())
}
