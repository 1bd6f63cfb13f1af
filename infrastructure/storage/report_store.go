package storage

import (
	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	reportPrefix  = "report-"
	screenshotDir = "screenshots"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type reportStore struct {
	dir string
	now func() time.Time
}

// NewReportStore - creates report storage rooted at dir
func NewReportStore(dir string) (interfaces.ReportStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifacts directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, screenshotDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &reportStore{dir: dir, now: time.Now}, nil
}

// SaveReport - saves a run report as indented JSON
func (s *reportStore) SaveReport(report *entities.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	stamp := report.StartedAt
	if stamp.IsZero() {
		stamp = s.now()
	}
	path := filepath.Join(s.dir, reportPrefix+stamp.UTC().Format("20060102T150405.000000000")+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReports - loads every stored report, newest first
func (s *reportStore) LoadReports() ([]entities.Report, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.Report{}, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), reportPrefix) || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	// timestamps in the names sort lexically
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	reports := make([]entities.Report, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		var report entities.Report
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// SaveScreenshot - saves PNG data under the screenshots directory
func (s *reportStore) SaveScreenshot(name string, data []byte) (string, error) {
	safe := unsafeName.ReplaceAllString(name, "_")
	if safe == "" {
		safe = "screenshot"
	}
	path := filepath.Join(s.dir, screenshotDir, fmt.Sprintf("%s-%d.png", safe, s.now().UnixNano()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
