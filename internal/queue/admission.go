package queue

import (
	"sort"
	"sync"
	"ticketchain/internal/model"
	apperrors "ticketchain/pkg/app_errors"
	"time"

	"github.com/shopspring/decimal"
)

// AdmissionQueue bounds how many users may simultaneously attempt a purchase.
// The earliest `window` positions are flagged can_purchase; ordering is by
// staked points descending with join order breaking ties. State is ephemeral
// and held in memory under one mutex.
type AdmissionQueue interface {
	Join(address string, stake decimal.Decimal) (*model.QueuePosition, error)
	Leave(address string) error
	Position(address string) (*model.QueuePosition, error)
	Complete(address string) error
	Stats() model.QueueStats
}

type admissionEntry struct {
	address  string
	stake    decimal.Decimal
	seq      int64
	joinedAt time.Time
}

type AdmissionQueueImpl struct {
	mu      sync.Mutex
	window  int
	nextSeq int64
	entries []*admissionEntry
}

func NewAdmissionQueue(window int) AdmissionQueue {
	if window < 1 {
		window = 1
	}
	return &AdmissionQueueImpl{
		window:  window,
		entries: make([]*admissionEntry, 0),
	}
}

func (q *AdmissionQueueImpl) Join(address string, stake decimal.Decimal) (*model.QueuePosition, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(address) >= 0 {
		return nil, apperrors.ErrAlreadyQueued
	}

	q.nextSeq++
	q.entries = append(q.entries, &admissionEntry{
		address:  address,
		stake:    stake,
		seq:      q.nextSeq,
		joinedAt: time.Now().UTC(),
	})

	// Stable priority order: higher stake first, earlier join breaks ties.
	sort.SliceStable(q.entries, func(i, j int) bool {
		cmp := q.entries[i].stake.Cmp(q.entries[j].stake)
		if cmp != 0 {
			return cmp > 0
		}
		return q.entries[i].seq < q.entries[j].seq
	})

	return q.positionLocked(address), nil
}

func (q *AdmissionQueueImpl) Leave(address string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(address)
}

// Complete removes a user after a successful purchase; the next waiting
// entry slides into the active window by position.
func (q *AdmissionQueueImpl) Complete(address string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(address)
}

func (q *AdmissionQueueImpl) Position(address string) (*model.QueuePosition, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(address) < 0 {
		return nil, apperrors.ErrNotQueued
	}
	return q.positionLocked(address), nil
}

func (q *AdmissionQueueImpl) Stats() model.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	active := len(q.entries)
	if active > q.window {
		active = q.window
	}
	return model.QueueStats{
		Waiting: len(q.entries) - active,
		Active:  active,
		Window:  q.window,
	}
}

func (q *AdmissionQueueImpl) indexOf(address string) int {
	for i, e := range q.entries {
		if e.address == address {
			return i
		}
	}
	return -1
}

func (q *AdmissionQueueImpl) removeLocked(address string) error {
	i := q.indexOf(address)
	if i < 0 {
		return apperrors.ErrNotQueued
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return nil
}

func (q *AdmissionQueueImpl) positionLocked(address string) *model.QueuePosition {
	i := q.indexOf(address)
	return &model.QueuePosition{
		Address:     address,
		Position:    i + 1,
		CanPurchase: i < q.window,
	}
}
