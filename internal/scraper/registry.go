// Package scraper holds the descriptor registry for directory scrapers and
// the store tracking their run status. The registry is explicit: scrapers are
// registered by the caller, not discovered from the filesystem.
package scraper

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Result summarizes what one scraper run wrote.
type Result struct {
	OrganizationsUpserted int
	PeopleUpserted        int
	ContactsUpserted      int
	CompletedAt           time.Time
}

// Scraper collects directory data for one organization.
type Scraper interface {
	Run(ctx context.Context) (Result, error)
}

// Descriptor identifies one registered scraper. Key doubles as the job key in
// the status store; DirectoryPath locates the organization it feeds, e.g.
// "ucop/ethics_compliance_audit_services".
type Descriptor struct {
	Key           string
	Name          string
	DirectoryPath string
	New           func() Scraper
}

// Registry maps scraper keys to descriptors.
type Registry struct {
	byKey map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Descriptor)}
}

// Register adds a descriptor. Registering the same key twice is an error.
func (r *Registry) Register(d Descriptor) error {
	if d.Key == "" {
		return fmt.Errorf("scraper descriptor missing key")
	}
	if d.New == nil {
		return fmt.Errorf("scraper %q has no constructor", d.Key)
	}
	if _, exists := r.byKey[d.Key]; exists {
		return fmt.Errorf("scraper %q already registered", d.Key)
	}
	r.byKey[d.Key] = d
	return nil
}

// Lookup returns the descriptor for a key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// All returns every descriptor sorted by name.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.byKey))
	for _, d := range r.byKey {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
