package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cybershield/backend/internal/models"
)

// MemoryStore is the default in-process store. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Complaint
	seq     uint
	prefix  string
	now     func() time.Time
}

// NewMemoryStore creates an empty store issuing codes with prefix.
func NewMemoryStore(prefix string) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.Complaint),
		prefix:  prefix,
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.TrackingCode == "" {
		for {
			code := models.NewTrackingCode(s.prefix)
			if _, taken := s.records[code]; !taken {
				c.TrackingCode = code
				break
			}
		}
	} else if _, taken := s.records[c.TrackingCode]; taken {
		return ErrDuplicateCode
	}

	s.seq++
	c.ID = s.seq
	c.ApplyDefaults(s.now())
	s.records[c.TrackingCode] = c.Clone()
	return nil
}

func (s *MemoryStore) GetByTrackingCode(ctx context.Context, code string) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.records[code]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, code string, status models.Status) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.records[code]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.Status.CanAdvanceTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusRegression, c.Status, status)
	}
	c.Status = status
	c.LastUpdated = s.now()
	return c.Clone(), nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Complaint, 0, len(s.records))
	for _, c := range s.records {
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
