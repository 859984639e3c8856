package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"clearcourse-hq/exhibit/pkg/export"
)

// MemoryStorage implements the export Storage interface in memory. It is
// used by tests and ephemeral deployments; the same lifecycle rules apply
// as for the SQLite backend, including the immutability of terminal rows.
type MemoryStorage struct {
	mu       sync.RWMutex
	exports  map[string]*export.CaseExport
	byNumber map[string]string // export_number -> id
	sections map[string][]*export.ExportSection
}

// NewMemoryStorage creates an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		exports:  make(map[string]*export.CaseExport),
		byNumber: make(map[string]string),
		sections: make(map[string][]*export.ExportSection),
	}
}

// CreateExport persists a new export row in StatusGenerating.
func (m *MemoryStorage) CreateExport(ctx context.Context, e *export.CaseExport) error {
	if e.Status != export.StatusGenerating {
		return export.NewStorageError("memory", "create",
			fmt.Errorf("export %s created with status %q, want %q", e.ID, e.Status, export.StatusGenerating))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.exports[e.ID]; exists {
		return export.NewStorageError("memory", "create",
			fmt.Errorf("export %s already exists", e.ID))
	}
	if _, exists := m.byNumber[e.ExportNumber]; exists {
		return export.NewStorageError("memory", "create",
			fmt.Errorf("export number %s already exists", e.ExportNumber))
	}

	cp := *e
	m.exports[e.ID] = &cp
	m.byNumber[e.ExportNumber] = e.ID
	return nil
}

// GetExport retrieves an export by id.
func (m *MemoryStorage) GetExport(ctx context.Context, id string) (*export.CaseExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.exports[id]
	if !ok {
		return nil, export.NewNotFoundError(id)
	}
	cp := *e
	return &cp, nil
}

// GetExportByNumber retrieves an export by its export number.
func (m *MemoryStorage) GetExportByNumber(ctx context.Context, number string) (*export.CaseExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byNumber[number]
	if !ok {
		return nil, export.NewNotFoundError(number)
	}
	cp := *m.exports[id]
	return &cp, nil
}

// ListExports returns all exports for a case, newest first.
func (m *MemoryStorage) ListExports(ctx context.Context, caseID string) ([]*export.CaseExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*export.CaseExport{}
	for _, e := range m.exports {
		if e.CaseID == caseID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// LatestCompleted returns the most recently completed export for the case,
// excluding the given export id. Returns (nil, nil) when none exists.
func (m *MemoryStorage) LatestCompleted(ctx context.Context, caseID, excludeID string) (*export.CaseExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []*export.CaseExport
	for _, e := range m.exports {
		if e.CaseID == caseID && e.Status == export.StatusCompleted && e.ID != excludeID {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortNewestFirst(candidates)
	cp := *candidates[0]
	return &cp, nil
}

// CompleteExport atomically persists all section rows and transitions the
// export from StatusGenerating to StatusCompleted with its hashes.
func (m *MemoryStorage) CompleteExport(ctx context.Context, e *export.CaseExport, sections []*export.ExportSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.exports[e.ID]
	if !ok {
		return export.NewNotFoundError(e.ID)
	}
	if stored.Status != export.StatusGenerating {
		return export.NewStorageError("memory", "complete",
			fmt.Errorf("export %s is not in status %q", e.ID, export.StatusGenerating))
	}

	updated := *stored
	updated.Status = export.StatusCompleted
	updated.SectionsIncluded = append([]string(nil), e.SectionsIncluded...)
	updated.ContentHash = e.ContentHash
	updated.ChainHash = e.ChainHash
	updated.PriorChainHash = e.PriorChainHash
	updated.ExpiresAt = e.ExpiresAt
	updated.GenerationTime = e.GenerationTime

	stored = &updated
	m.exports[e.ID] = stored

	rows := make([]*export.ExportSection, 0, len(sections))
	for _, sec := range sections {
		cp := *sec
		rows = append(rows, &cp)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SectionOrder < rows[j].SectionOrder })
	m.sections[e.ID] = rows
	return nil
}

// FailExport transitions a generating export to StatusFailed with the given
// message. Any section rows for the export are discarded.
func (m *MemoryStorage) FailExport(ctx context.Context, id, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.exports[id]
	if !ok {
		return export.NewNotFoundError(id)
	}
	if stored.Status != export.StatusGenerating {
		return export.NewStorageError("memory", "fail",
			fmt.Errorf("export %s is not in status %q", id, export.StatusGenerating))
	}

	updated := *stored
	updated.Status = export.StatusFailed
	updated.ErrorMessage = errMsg
	m.exports[id] = &updated
	delete(m.sections, id)
	return nil
}

// GetSections returns the section rows for an export in section_order.
func (m *MemoryStorage) GetSections(ctx context.Context, exportID string) ([]*export.ExportSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.sections[exportID]
	out := make([]*export.ExportSection, 0, len(rows))
	for _, sec := range rows {
		cp := *sec
		out = append(out, &cp)
	}
	return out, nil
}

// RecordDownload increments the download counter and stamps
// last_downloaded_at.
func (m *MemoryStorage) RecordDownload(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.exports[id]
	if !ok {
		return export.NewNotFoundError(id)
	}
	updated := *stored
	updated.DownloadCount++
	t := at
	updated.LastDownloadedAt = &t
	m.exports[id] = &updated
	return nil
}

// DeleteExpired removes expired, non-permanent exports and their sections.
func (m *MemoryStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, e := range m.exports {
		if e.Expired(now) {
			delete(m.byNumber, e.ExportNumber)
			delete(m.exports, id)
			delete(m.sections, id)
			count++
		}
	}
	return count, nil
}

// Close releases resources held by the backend.
func (m *MemoryStorage) Close() error {
	return nil
}

// sortNewestFirst orders exports by generated_at descending, ties broken by
// export_number descending. This ordering defines which prior export a new
// chain hash links to.
func sortNewestFirst(exports []*export.CaseExport) {
	sort.Slice(exports, func(i, j int) bool {
		if !exports[i].GeneratedAt.Equal(exports[j].GeneratedAt) {
			return exports[i].GeneratedAt.After(exports[j].GeneratedAt)
		}
		return exports[i].ExportNumber > exports[j].ExportNumber
	})
}
