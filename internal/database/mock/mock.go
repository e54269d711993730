// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/kozaktomas/face-attend/internal/database"
	"github.com/kozaktomas/face-attend/internal/engine"
	"github.com/kozaktomas/face-attend/internal/roster"
)

// MockIdentityWriter is a mock implementation of database.IdentityWriter
type MockIdentityWriter struct {
	mu         sync.RWMutex
	identities map[string]*database.StoredIdentity

	// Track calls
	SaveCalls   []string
	DeleteCalls []string

	// Error injection
	LoadError   error
	GetError    error
	FindError   error
	CountError  error
	SaveError   error
	DeleteError error
}

// NewMockIdentityWriter creates a new mock identity writer
func NewMockIdentityWriter() *MockIdentityWriter {
	return &MockIdentityWriter{
		identities: make(map[string]*database.StoredIdentity),
	}
}

// AddIdentity seeds the mock store
func (m *MockIdentityWriter) AddIdentity(id database.StoredIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[id.Roll] = &id
}

// LoadIdentities returns all identities ordered by roll
func (m *MockIdentityWriter) LoadIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []database.StoredIdentity
	for _, id := range m.identities {
		out = append(out, *id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Roll < out[j].Roll })
	return out, nil
}

// GetIdentity retrieves one identity by roll, nil if not found
func (m *MockIdentityWriter) GetIdentity(ctx context.Context, roll string) (*database.StoredIdentity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.identities[roll]
	if !ok {
		return nil, nil
	}
	copied := *id
	return &copied, nil
}

// FindByName retrieves identities whose normalized name matches
func (m *MockIdentityWriter) FindByName(ctx context.Context, name string) ([]database.StoredIdentity, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := roster.NormalizeName(name)
	var out []database.StoredIdentity
	for _, id := range m.identities {
		if roster.NormalizeName(id.Name) == want {
			out = append(out, *id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Roll < out[j].Roll })
	return out, nil
}

// CountIdentities returns the number of registered identities
func (m *MockIdentityWriter) CountIdentities(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// CountEncodings returns the total number of stored encodings
func (m *MockIdentityWriter) CountEncodings(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, id := range m.identities {
		count += len(id.Embeddings)
	}
	return count, nil
}

// SaveIdentity stores an identity, replacing any existing encodings
func (m *MockIdentityWriter) SaveIdentity(ctx context.Context, id database.StoredIdentity) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.SaveCalls = append(m.SaveCalls, id.Roll)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[id.Roll] = &id
	return nil
}

// DeleteIdentity removes an identity and its encodings
func (m *MockIdentityWriter) DeleteIdentity(ctx context.Context, roll string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.DeleteCalls = append(m.DeleteCalls, roll)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, roll)
	return nil
}

// MockCalibrationStore is a mock implementation of database.CalibrationStore
type MockCalibrationStore struct {
	mu      sync.RWMutex
	records []database.CalibrationRecord
	nextID  int64

	// Error injection
	SaveError   error
	LatestError error
	ListError   error
}

// NewMockCalibrationStore creates a new mock calibration store
func NewMockCalibrationStore() *MockCalibrationStore {
	return &MockCalibrationStore{}
}

// SaveCalibration appends one calibration result to the history
func (m *MockCalibrationStore) SaveCalibration(ctx context.Context, result *engine.CalibrationResult) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.records = append(m.records, database.CalibrationRecord{
		ID:                  m.nextID,
		Timestamp:           result.Timestamp,
		DistanceThreshold:   result.DistanceThreshold,
		ConfidenceThreshold: result.ConfidenceThreshold,
		QualityThreshold:    result.QualityThreshold,
		DetectorMode:        string(result.DetectorMode),
		EmbeddingsUsed:      result.EmbeddingsUsed,
		UniqueIdentities:    result.UniqueIdentities,
		AvgIntraClass:       result.AvgIntraClass,
		AvgInterClass:       result.AvgInterClass,
		StdIntraClass:       result.StdIntraClass,
	})
	return nil
}

// LatestCalibration returns the most recent record, nil if none exists
func (m *MockCalibrationStore) LatestCalibration(ctx context.Context) (*database.CalibrationRecord, error) {
	if m.LatestError != nil {
		return nil, m.LatestError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return nil, nil
	}
	rec := m.records[len(m.records)-1]
	return &rec, nil
}

// ListCalibrations returns records newest first, up to limit
func (m *MockCalibrationStore) ListCalibrations(ctx context.Context, limit int) ([]database.CalibrationRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []database.CalibrationRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// MockAttendanceStore is a mock implementation of database.AttendanceStore
type MockAttendanceStore struct {
	mu      sync.RWMutex
	records map[string]database.AttendanceRecord // keyed by roll+"/"+day

	// Error injection
	MarkError  error
	ListError  error
	ClearError error
}

// NewMockAttendanceStore creates a new mock attendance store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{
		records: make(map[string]database.AttendanceRecord),
	}
}

// MarkPresent records a sighting, first sighting wins
func (m *MockAttendanceStore) MarkPresent(ctx context.Context, rec database.AttendanceRecord) (*database.AttendanceRecord, bool, error) {
	if m.MarkError != nil {
		return nil, false, m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rec.Roll + "/" + rec.Day
	if existing, ok := m.records[key]; ok {
		return &existing, false, nil
	}
	m.records[key] = rec
	return &rec, true, nil
}

// ListByDay returns all records for a day, oldest first
func (m *MockAttendanceStore) ListByDay(ctx context.Context, day string) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []database.AttendanceRecord
	for _, rec := range m.records {
		if rec.Day == day {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarkedAt.Before(out[j].MarkedAt) })
	return out, nil
}

// ClearDay removes all records for a day
func (m *MockAttendanceStore) ClearDay(ctx context.Context, day string) error {
	if m.ClearError != nil {
		return m.ClearError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rec := range m.records {
		if rec.Day == day {
			delete(m.records, key)
		}
	}
	return nil
}

// Verify interface compliance
var _ database.IdentityReader = (*MockIdentityWriter)(nil)
var _ database.IdentityWriter = (*MockIdentityWriter)(nil)
var _ database.CalibrationStore = (*MockCalibrationStore)(nil)
var _ database.AttendanceStore = (*MockAttendanceStore)(nil)
var _ engine.CalibrationWriter = (*MockCalibrationStore)(nil)
