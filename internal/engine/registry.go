package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/escrow-express/deal-bot/internal/models"
)

// Registry is the authoritative in-memory store of active deals. All
// mutations on a deal run under the registry lock, so an update closure
// observes and applies against a consistent record. Deal ids are
// assigned from a process-lifetime counter and never reused, even after
// deletion.
type Registry struct {
	mu      sync.Mutex
	deals   map[string]*models.Deal
	counter uint64
}

func NewRegistry() *Registry {
	return &Registry{deals: make(map[string]*models.Deal)}
}

// Create assigns the next deal id, inserts the deal and returns a
// snapshot of it.
func (r *Registry) Create(d *models.Deal) *models.Deal {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	d.ID = fmt.Sprintf("DEAL%d", r.counter)
	r.deals[d.ID] = d
	return d.Clone()
}

// Get returns a snapshot of the deal, or ErrDealNotFound.
func (r *Registry) Get(id string) (*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, models.ErrDealNotFound)
	}
	return d.Clone(), nil
}

// Update runs fn against the live deal under the registry lock. If fn
// returns an error nothing else about the record is assumed; fn itself
// must be all-or-nothing.
func (r *Registry) Update(id string, fn func(*models.Deal) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, models.ErrDealNotFound)
	}
	return fn(d)
}

// Delete removes the deal if present.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deals, id)
}

// List returns snapshots of all deals matching the predicate, in no
// particular order.
func (r *Registry) List(pred func(*models.Deal) bool) []*models.Deal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Deal
	for _, d := range r.deals {
		if pred(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// SweepExpired removes every deal still waiting for confirmation whose
// CreatedAt is older than the cutoff, and returns snapshots of the
// removed deals marked expired. The check-and-delete runs under the
// registry lock, so a deal being confirmed concurrently is never swept.
func (r *Registry) SweepExpired(cutoff time.Time) []*models.Deal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*models.Deal
	for id, d := range r.deals {
		if d.Status != models.StatusWaitingConfirmation {
			continue
		}
		if d.CreatedAt.Before(cutoff) {
			delete(r.deals, id)
			c := d.Clone()
			c.Status = models.StatusExpired
			expired = append(expired, c)
		}
	}
	return expired
}
