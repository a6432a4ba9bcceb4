package services

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Statistics son los contadores globales de la memoria virtual. Los incrementan los pagers
// en paralelo, por eso usan contadores striped en lugar de un mutex.
type Statistics struct {
	Faults     *xsync.Counter
	PageIns    *xsync.Counter
	PageOuts   *xsync.Counter
	WriteBacks *xsync.Counter
	NewPages   *xsync.Counter
}

func NewStatistics() *Statistics {
	return &Statistics{
		Faults:     xsync.NewCounter(),
		PageIns:    xsync.NewCounter(),
		PageOuts:   xsync.NewCounter(),
		WriteBacks: xsync.NewCounter(),
		NewPages:   xsync.NewCounter(),
	}
}

func (s *Statistics) Reset() {
	s.Faults.Reset()
	s.PageIns.Reset()
	s.PageOuts.Reset()
	s.WriteBacks.Reset()
	s.NewPages.Reset()
}
