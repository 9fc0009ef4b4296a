// Package roster holds the in-memory identity store.
package roster

// Option applies a configuration option to the Roster.
type Option func(*Roster)

// WithSaver sets the persistence collaborator invoked after every mutation.
func WithSaver(s Saver) Option {
	return func(r *Roster) {
		if s != nil {
			r.saver = s
		}
	}
}

// WithPeople seeds the roster with previously persisted people, preserving
// their order for deterministic matcher iteration.
func WithPeople(people []Person) Option {
	return func(r *Roster) {
		for _, p := range people {
			if p.Name == "" || len(p.Embeddings) == 0 {
				continue
			}
			if _, ok := r.people[p.Name]; !ok {
				r.order = append(r.order, p.Name)
			}
			r.people[p.Name] = append(r.people[p.Name], p.Embeddings...)
		}
	}
}
