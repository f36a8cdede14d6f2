package parser

import (
	"sort"
	"sync"

	"github.com/tsawler/docparse/model"
)

// registration pairs a parser singleton with its registration order,
// used to break priority ties (first registered wins).
type registration struct {
	parser Parser
	wrap   *Monitored
	order  int
}

// Factory maintains the parser registry and selects the best parser for
// an element. It is safe for concurrent use; registration is expected at
// startup but may happen at any time.
type Factory struct {
	mu      sync.RWMutex
	entries map[string]*registration
	byType  map[model.ElementType][]string
	nextOrd int
	exec    ExecConfig
}

// NewFactory creates an empty factory.
func NewFactory(exec ExecConfig) *Factory {
	return &Factory{
		entries: make(map[string]*registration),
		byType:  make(map[model.ElementType][]string),
		exec:    exec,
	}
}

// Register adds or replaces a parser under the given name and indexes it
// by its supported element types. Re-registering the same name with an
// equivalent parser leaves selection behavior unchanged.
func (f *Factory) Register(name string, p Parser) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.entries[name]; ok {
		// Keep the original registration order so re-registration is
		// idempotent for tie-breaking.
		existing.parser = p
		existing.wrap = NewMonitored(p, f.exec)
		f.reindex()
		return
	}

	f.entries[name] = &registration{
		parser: p,
		wrap:   NewMonitored(p, f.exec),
		order:  f.nextOrd,
	}
	f.nextOrd++
	f.reindex()
}

// Unregister removes a parser by name. It reports whether the name was
// registered.
func (f *Factory) Unregister(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[name]; !ok {
		return false
	}
	delete(f.entries, name)
	f.reindex()
	return true
}

// reindex rebuilds the element-type index in registration order.
// Caller holds the write lock.
func (f *Factory) reindex() {
	f.byType = make(map[model.ElementType][]string)
	names := f.namesByOrder()
	for _, name := range names {
		reg := f.entries[name]
		for _, et := range reg.parser.Capabilities().ElementTypes {
			f.byType[et] = append(f.byType[et], name)
		}
	}
}

// namesByOrder returns registered names sorted by registration order.
// Caller holds at least the read lock.
func (f *Factory) namesByOrder() []string {
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return f.entries[names[i]].order < f.entries[names[j]].order
	})
	return names
}

// Get returns the parser registered under name, or nil.
func (f *Factory) Get(name string) Parser {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if reg, ok := f.entries[name]; ok {
		return reg.parser
	}
	return nil
}

// Monitored returns the monitored wrapper for a registered parser, or nil.
func (f *Factory) Monitored(name string) *Monitored {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if reg, ok := f.entries[name]; ok {
		return reg.wrap
	}
	return nil
}

// Names returns all registered parser names in registration order.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.namesByOrder()
}

// candidates gathers candidate parser names for an element:
// parsers registered for a hinted expected type first, then parsers
// registered for the element's declared type, and when the declared type
// is unrecognized, all registered parsers.
func (f *Factory) candidates(el *model.Element, hints *model.ProcessingHints) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	if hints != nil && hints.ExpectedType != model.ElementTypeUnknown {
		add(f.byType[hints.ExpectedType])
	}
	if el.Type != model.ElementTypeUnknown {
		add(f.byType[el.Type])
	} else {
		add(f.namesByOrder())
	}
	return out
}

// ParserFor selects the best parser for an element. Among candidates whose
// CanParse returns true, the one with the highest Priority wins; ties
// resolve to the earliest registered. Returns an UnsupportedElementError
// when no candidate accepts the element.
func (f *Factory) ParserFor(el *model.Element, hints *model.ProcessingHints) (*Monitored, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var (
		best      *registration
		bestScore int
	)
	for _, name := range f.candidates(el, hints) {
		reg := f.entries[name]
		if reg == nil || !reg.parser.CanParse(el) {
			continue
		}
		score := reg.parser.Priority(el)
		if best == nil || score > bestScore || (score == bestScore && reg.order < best.order) {
			best = reg
			bestScore = score
		}
	}

	if best == nil {
		return nil, &model.UnsupportedElementError{ElementID: el.ID, ElementType: el.Type}
	}
	return best.wrap, nil
}
