// Package inmem holds generated reports in memory; actas are rebuilt from
// the remote API on every run, so nothing here survives a restart.
package inmem

import (
	"sync"

	"github.com/google/uuid"

	"github.com/uautonoma/actgen/core/acta"
)

type reportStore struct {
	mutex   sync.RWMutex
	reports map[string]*acta.Report
}

var _ acta.ReportStore = (*reportStore)(nil)

func NewReportStore() acta.ReportStore {
	return &reportStore{reports: make(map[string]*acta.Report)}
}

func (s *reportStore) Save(rep *acta.Report) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := uuid.NewString()
	s.reports[id] = rep
	return id
}

func (s *reportStore) Get(id string) (*acta.Report, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rep, ok := s.reports[id]
	return rep, ok
}
