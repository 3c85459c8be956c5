package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
	"github.com/campusops/fee-api/pkg/export"
	"github.com/campusops/fee-api/pkg/jobs"
	"github.com/campusops/fee-api/pkg/storage"
)

type defaulterSource interface {
	Defaulters(ctx context.Context, department string, year int, feeType models.FeeType) ([]models.DefaulterRow, error)
}

// ReportRequest asks for an async defaulter report.
type ReportRequest struct {
	Format     models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Department string              `json:"department,omitempty"`
	Year       int                 `json:"year,omitempty"`
	FeeType    models.FeeType      `json:"feeType,omitempty"`
}

// ReportService generates defaulter reports in the background and serves
// them through signed download URLs.
type ReportService struct {
	source defaulterSource
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	queue  *jobs.Queue
	logger *zap.Logger

	mu      sync.RWMutex
	reports map[string]*models.ReportJob
}

// NewReportService constructs ReportService and its worker queue.
func NewReportService(source defaulterSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, workers int, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		source:  source,
		store:   store,
		signer:  signer,
		logger:  logger,
		reports: make(map[string]*models.ReportJob),
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Request enqueues a defaulter report and returns its tracking record.
func (s *ReportService) Request(ctx context.Context, requestedBy string, req ReportRequest) (*models.ReportJob, error) {
	if req.Format != models.ReportFormatCSV && req.Format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if req.FeeType != "" && !models.ValidFeeType(req.FeeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee type")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Format:      req.Format,
		Department:  req.Department,
		Year:        req.Year,
		FeeType:     req.FeeType,
		Status:      models.ReportStatusQueued,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.reports[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "defaulter_report", Payload: job.ID}); err != nil {
		s.setFailed(job.ID, err.Error())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report")
	}
	return s.snapshot(job.ID), nil
}

// Get returns the current state of a report job.
func (s *ReportService) Get(ctx context.Context, id string) (*models.ReportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return job, nil
}

// OpenSigned validates a signed download token and opens the file it names.
func (s *ReportService) OpenSigned(token string) (*os.File, string, error) {
	reportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job := s.snapshot(reportID)
	if job == nil || job.Status != models.ReportStatusCompleted {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report not available")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file missing")
	}
	return file, relPath, nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	id, _ := job.Payload.(string)
	req := s.snapshot(id)
	if req == nil {
		return fmt.Errorf("unknown report %s", id)
	}
	s.setStatus(id, models.ReportStatusRunning)

	rows, err := s.source.Defaulters(ctx, req.Department, req.Year, req.FeeType)
	if err != nil {
		s.setFailed(id, err.Error())
		return err
	}

	renderer, err := export.New(export.Format(req.Format))
	if err != nil {
		s.setFailed(id, err.Error())
		return err
	}
	payload, err := renderer.Render(defaulterDataset(rows))
	if err != nil {
		s.setFailed(id, err.Error())
		return err
	}

	relPath := fmt.Sprintf("defaulters/%s.%s", id, renderer.Ext())
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.setFailed(id, err.Error())
		return err
	}

	token, _, err := s.signer.Generate(id, relPath)
	if err != nil {
		s.setFailed(id, err.Error())
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if stored, ok := s.reports[id]; ok {
		stored.Status = models.ReportStatusCompleted
		stored.FilePath = relPath
		stored.DownloadURL = fmt.Sprintf("/api/v1/reports/download/%s", token)
		stored.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Sugar().Infow("defaulter report generated", "report_id", id, "rows", len(rows), "format", req.Format)
	return nil
}

func (s *ReportService) snapshot(id string) *models.ReportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.reports[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ReportService) setStatus(id string, status models.ReportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.reports[id]; ok {
		job.Status = status
	}
}

func (s *ReportService) setFailed(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.reports[id]; ok {
		job.Status = models.ReportStatusFailed
		job.Error = reason
	}
}

func defaulterDataset(rows []models.DefaulterRow) export.Dataset {
	data := export.Dataset{
		Title:   "Fee Defaulter Report",
		Headers: []string{"USN", "Name", "Department", "Batch", "Year", "Fee Type", "Outstanding"},
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"USN":         row.USN,
			"Name":        row.Name,
			"Department":  row.Department,
			"Batch":       row.Batch,
			"Year":        fmt.Sprintf("%d", row.Year),
			"Fee Type":    string(row.FeeType),
			"Outstanding": fmt.Sprintf("%d", row.Outstanding),
		})
	}
	return data
}
