package bulletin

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Composition ids known to the render tool.
const (
	CompositionUpdateBulletin     = "HagicodeUpdateBulletin"
	CompositionReleaseNotesMobile = "HagicodeReleaseNotesMobile"
)

// Composition describes one render template and the data contract it accepts.
type Composition struct {
	ID          string
	Description string
	// Detect reports whether a parsed document has this composition's shape.
	// A nil Detect never matches; the composition can still be selected
	// explicitly or as the registry default.
	Detect func(doc map[string]any) bool
	// Validate applies the composition's rules to a parsed mapping.
	Validate func(doc map[string]any) error
}

// Registry is the dispatch table used to infer and validate compositions.
type Registry struct {
	mu           sync.RWMutex
	compositions []Composition
	defaultID    string
}

// NewRegistry returns an empty registry whose fallback is defaultID.
func NewRegistry(defaultID string) *Registry {
	return &Registry{defaultID: defaultID}
}

// Register adds or replaces a composition. Detectors run in registration order.
func (r *Registry) Register(c Composition) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("composition id must not be empty")
	}
	if c.Validate == nil {
		return fmt.Errorf("composition %s: validate func is required", c.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.compositions {
		if r.compositions[i].ID == c.ID {
			r.compositions[i] = c
			return nil
		}
	}
	r.compositions = append(r.compositions, c)
	return nil
}

// Lookup returns the composition registered under id.
func (r *Registry) Lookup(id string) (Composition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.compositions {
		if c.ID == id {
			return c, true
		}
	}
	return Composition{}, false
}

// IDs lists the registered composition ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.compositions))
	for _, c := range r.compositions {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}

// Default returns the fallback composition id.
func (r *Registry) Default() string {
	return r.defaultID
}

// Infer picks the composition id for a parsed document. The first detector
// that matches wins; otherwise the registry default is returned.
func (r *Registry) Infer(parsed any) string {
	doc, ok := parsed.(map[string]any)
	if !ok || doc == nil {
		return r.defaultID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.compositions {
		if c.Detect != nil && c.Detect(doc) {
			return c.ID
		}
	}
	return r.defaultID
}

// Validate checks parsed against the rules of compositionID.
func (r *Registry) Validate(parsed any, compositionID string) error {
	c, ok := r.Lookup(compositionID)
	if !ok {
		known := strings.Join(r.IDs(), ", ")
		return invalidf("composition", "unknown composition %q (known: %s)", compositionID, known)
	}
	doc, err := asDocument(parsed)
	if err != nil {
		return err
	}
	return c.Validate(doc)
}

var defaultRegistry = newDefaultRegistry()

// DefaultRegistry returns the process-wide registry with the built-in
// compositions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Validate checks parsed against compositionID using the default registry.
func Validate(parsed any, compositionID string) error {
	return defaultRegistry.Validate(parsed, compositionID)
}

func newDefaultRegistry() *Registry {
	r := NewRegistry(CompositionUpdateBulletin)
	_ = r.Register(Composition{
		ID:          CompositionUpdateBulletin,
		Description: "landscape update bulletin",
		Detect:      hasBulletinShape,
		Validate:    validateBulletin,
	})
	_ = r.Register(Composition{
		ID:          CompositionReleaseNotesMobile,
		Description: "portrait release notes for mobile",
		Validate:    validateBulletin,
	})
	return r
}

func hasBulletinShape(doc map[string]any) bool {
	_, hasVersion := doc["version"]
	_, hasDate := doc["releaseDate"]
	return hasVersion && hasDate
}
