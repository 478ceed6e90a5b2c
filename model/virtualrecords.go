package model

import "sync"

// VirtualRecord is one peeled-off virtual packet's contribution to the
// emergent spectrum: its emergent frequency and energy, plus the
// last-interaction bookkeeping of the real packet it was spawned from.
type VirtualRecord struct {
	Nu                  float64
	Energy              float64
	LastInteractionInNu float64
	LastInteractionType int
	LastLineInID        int
	LastLineOutID       int
}

// VirtualRecordStore is a growable, concurrency-safe collection of
// VirtualRecords. Workers append under a single critical section that also
// covers growth, so capacity growth is serialized across workers;
// ordering between records from different workers is never guaranteed.
type VirtualRecordStore struct {
	mu      sync.Mutex
	records []VirtualRecord
}

// NewVirtualRecordStore allocates a store with initial capacity cap0
// (typically the packet count, per the main loop's allocation rule).
func NewVirtualRecordStore(cap0 int) *VirtualRecordStore {
	if cap0 < 0 {
		cap0 = 0
	}

	return &VirtualRecordStore{records: make([]VirtualRecord, 0, cap0)}
}

// Append adds r to the store. Safe for concurrent callers.
func (s *VirtualRecordStore) Append(r VirtualRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
}

// Len returns the number of records currently stored.
func (s *VirtualRecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Snapshot returns a copy of the stored records. Intended for
// end-of-run readout, not for use inside the hot loop.
func (s *VirtualRecordStore) Snapshot() []VirtualRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]VirtualRecord, len(s.records))
	copy(out, s.records)

	return out
}
