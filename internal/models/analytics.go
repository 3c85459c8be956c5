package models

import "time"

// CollectionSummary aggregates amounts collected and outstanding per fee type.
type CollectionSummary struct {
	FeeType     FeeType `db:"fee_type" json:"feeType"`
	TotalDue    int64   `db:"total_due" json:"totalDue"`
	TotalPaid   int64   `db:"total_paid" json:"totalPaid"`
	Outstanding int64   `db:"outstanding" json:"outstanding"`
	Students    int     `db:"students" json:"students"`
}

// DepartmentCollection aggregates collections per department.
type DepartmentCollection struct {
	Department  string `db:"department" json:"department"`
	TotalDue    int64  `db:"total_due" json:"totalDue"`
	TotalPaid   int64  `db:"total_paid" json:"totalPaid"`
	Outstanding int64  `db:"outstanding" json:"outstanding"`
}

// DashboardStats is the headline analytics block.
type DashboardStats struct {
	TotalStudents    int                    `json:"totalStudents"`
	ActiveStudents   int                    `json:"activeStudents"`
	TotalCollected   int64                  `json:"totalCollected"`
	TotalOutstanding int64                  `json:"totalOutstanding"`
	ByFeeType        []CollectionSummary    `json:"byFeeType"`
	ByDepartment     []DepartmentCollection `json:"byDepartment"`
	GeneratedAt      time.Time              `json:"generatedAt"`
}

// DefaulterRow is one line of a fee-defaulter report.
type DefaulterRow struct {
	USN         string  `db:"usn" json:"usn"`
	Name        string  `db:"name" json:"name"`
	Department  string  `db:"department" json:"department"`
	Batch       string  `db:"batch" json:"batch"`
	Year        int     `db:"year" json:"year"`
	FeeType     FeeType `db:"fee_type" json:"feeType"`
	Outstanding int64   `db:"outstanding" json:"outstanding"`
}

// ReportFormat selects a report renderer.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus tracks async report generation.
type ReportStatus string

const (
	ReportStatusQueued    ReportStatus = "queued"
	ReportStatusRunning   ReportStatus = "running"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// ReportJob records one requested defaulter report.
type ReportJob struct {
	ID          string       `json:"id"`
	Format      ReportFormat `json:"format"`
	Department  string       `json:"department,omitempty"`
	Year        int          `json:"year,omitempty"`
	FeeType     FeeType      `json:"feeType,omitempty"`
	Status      ReportStatus `json:"status"`
	FilePath    string       `json:"-"`
	DownloadURL string       `json:"downloadUrl,omitempty"`
	Error       string       `json:"error,omitempty"`
	RequestedBy string       `json:"requestedBy"`
	RequestedAt time.Time    `json:"requestedAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}
