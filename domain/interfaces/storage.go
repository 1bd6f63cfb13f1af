package interfaces

import "codeexpert_e2e/domain/entities"

// ReportStore persists run reports and failure artifacts
type ReportStore interface {
	// SaveReport stores a report and returns where it was written
	SaveReport(report *entities.Report) (string, error)

	// LoadReports loads stored reports, newest first
	LoadReports() ([]entities.Report, error)

	// SaveScreenshot stores a PNG screenshot and returns its path
	SaveScreenshot(name string, data []byte) (string, error)
}
