// Package roster holds the in-memory identity store: enrolled people and
// their face embeddings.
package roster

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/presence/internal/domain/model"
	"github.com/okian/presence/internal/domain/types"
	"github.com/okian/presence/pkg/metrics"
)

// Person is one enrolled identity with its stored embeddings, in enrollment
// order.
type Person struct {
	Name       string
	Embeddings []model.Embedding
}

// Saver persists the full roster. Called synchronously under the roster
// write lock after every mutation; a non-nil error aborts the mutation.
type Saver interface {
	Save(ctx context.Context, people []Person) error
}

// Roster maps person names to embedding sequences. Reads (snapshots for the
// matcher, listings for the API) may run concurrently with each other;
// mutations are serialized and never observed half-applied.
type Roster struct {
	mu     sync.RWMutex
	people map[string][]model.Embedding
	order  []string // name insertion order, for deterministic matcher iteration
	saver  Saver
}

// New creates a Roster with configuration options.
func New(opts ...Option) *Roster {
	r := &Roster{
		people: make(map[string][]model.Embedding),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	r.updateGauges()
	return r
}

// Add appends embeddings to an existing person or enrolls a new one. Prior
// embeddings are never overwritten. The mutation is rolled back if
// persistence fails, keeping memory and disk consistent.
func (r *Roster) Add(ctx context.Context, name string, embeddings []model.Embedding) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(embeddings) == 0 {
		// An empty sequence must never be written.
		return ErrNoEmbeddings
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prior, existed := r.people[name]
	priorLen := len(prior)

	r.people[name] = append(r.people[name], embeddings...)
	if !existed {
		r.order = append(r.order, name)
	}

	if err := r.save(ctx); err != nil {
		// Roll back to the pre-mutation state.
		if existed {
			r.people[name] = r.people[name][:priorLen]
		} else {
			delete(r.people, name)
			r.order = r.order[:len(r.order)-1]
		}
		return fmt.Errorf("persist roster after add: %w", err)
	}

	r.updateGauges()
	return nil
}

// Remove deletes a person. Returns ErrNotFound when the name is absent. The
// mutation is rolled back if persistence fails.
func (r *Roster) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, ok := r.people[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	idx := -1
	for i, n := range r.order {
		if n == name {
			idx = i
			break
		}
	}

	delete(r.people, name)
	if idx >= 0 {
		r.order = append(r.order[:idx], r.order[idx+1:]...)
	}

	if err := r.save(ctx); err != nil {
		r.people[name] = prior
		if idx >= 0 {
			r.order = append(r.order, "")
			copy(r.order[idx+1:], r.order[idx:])
			r.order[idx] = name
		}
		return fmt.Errorf("persist roster after remove: %w", err)
	}

	r.updateGauges()
	return nil
}

// List returns name and embedding count for every enrolled person in
// insertion order.
func (r *Roster) List(ctx context.Context) []types.PersonInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.PersonInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, types.PersonInfo{
			Name:           name,
			EmbeddingCount: len(r.people[name]),
		})
	}
	return out
}

// Snapshot returns the current people in insertion order. The returned
// slices share embedding storage with the roster; embeddings are immutable
// so this is safe for concurrent matching.
func (r *Roster) Snapshot(ctx context.Context) []Person {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Person, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Person{Name: name, Embeddings: r.people[name]})
	}
	return out
}

// Count returns the number of enrolled people.
func (r *Roster) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.people)
}

// save serializes the full store through the configured Saver.
// Must be called with r.mu held.
func (r *Roster) save(ctx context.Context) error {
	if r.saver == nil {
		return nil
	}
	people := make([]Person, 0, len(r.order))
	for _, name := range r.order {
		people = append(people, Person{Name: name, Embeddings: r.people[name]})
	}
	if err := r.saver.Save(ctx, people); err != nil {
		metrics.RecordRosterSaveError()
		metrics.RecordErrorByComponent("roster", "save_failed")
		return err
	}
	return nil
}

// updateGauges refreshes roster size metrics. Must be called with r.mu held
// (read or write).
func (r *Roster) updateGauges() {
	total := 0
	for _, embs := range r.people {
		total += len(embs)
	}
	metrics.UpdateRosterPeople(len(r.people))
	metrics.UpdateRosterEmbeddings(total)
}
