// Package labs loads lab definitions and retargets lab queries between datasets.
package labs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/querylab/internal/models"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// ErrNotFound is returned when a lab or example does not exist.
var ErrNotFound = errors.New("lab not found")

// Extensions are the file extensions recognized as lab files.
var Extensions = []string{".yaml", ".yml"}

// IsLabFile reports whether path has a lab file extension.
func IsLabFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse decodes and validates one lab file. source is recorded on the lab.
func Parse(data []byte, source string) (*models.LabConfig, error) {
	var lab models.LabConfig
	if err := yaml.Unmarshal(data, &lab); err != nil {
		return nil, fmt.Errorf("failed to parse lab %s: %w", source, err)
	}
	if lab.QueryLanguage == "" {
		lab.QueryLanguage = models.QueryDSL
	}
	lab.Source = source
	if err := Validate(&lab); err != nil {
		return nil, fmt.Errorf("invalid lab %s: %w", source, err)
	}
	return &lab, nil
}

// LoadDefaults returns the built-in labs.
func LoadDefaults() ([]*models.LabConfig, error) {
	entries, err := fs.ReadDir(defaultFS, "defaults")
	if err != nil {
		return nil, err
	}
	out := make([]*models.LabConfig, 0, len(entries))
	for _, e := range entries {
		data, err := defaultFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			return nil, err
		}
		lab, err := Parse(data, "")
		if err != nil {
			return nil, err
		}
		out = append(out, lab)
	}
	return out, nil
}

// Registry holds the active labs. Labs loaded from files override built-in
// labs with the same id; removing the file restores the built-in lab.
// Returned labs are shared and must not be modified.
type Registry struct {
	mu       sync.RWMutex
	labs     map[string]*models.LabConfig
	builtin  map[string]*models.LabConfig
	bySource map[string]string // file path -> lab id
	logger   *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets a logger for load and reload events.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry returns a registry holding the built-in labs.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		labs:     make(map[string]*models.LabConfig),
		builtin:  make(map[string]*models.LabConfig),
		bySource: make(map[string]string),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	defaults, err := LoadDefaults()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in labs: %w", err)
	}
	for _, lab := range defaults {
		r.builtin[lab.ID] = lab
		r.labs[lab.ID] = lab
	}
	return r, nil
}

// Get returns the lab with the given id.
func (r *Registry) Get(id string) (*models.LabConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lab, ok := r.labs[id]
	return lab, ok
}

// List returns all labs sorted by id.
func (r *Registry) List() []*models.LabConfig {
	r.mu.RLock()
	out := make([]*models.LabConfig, 0, len(r.labs))
	for _, lab := range r.labs {
		out = append(out, lab)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of active labs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.labs)
}

// SourceID returns the id of the lab loaded from path.
func (r *Registry) SourceID(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySource[path]
	return id, ok
}

// Load reads every lab file directly inside dir. A missing directory is not
// an error. Invalid files are logged and skipped; the number of labs loaded
// is returned.
func (r *Registry) Load(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read labs directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !IsLabFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := r.Reload(path); err != nil {
			r.logger.Warn("skipping lab file", zap.String("path", path), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

// Reload reads the lab file at path and makes it active. If the file used to
// define a different id, that lab is dropped first.
func (r *Registry) Reload(path string) (*models.LabConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lab: %w", err)
	}
	lab, err := Parse(data, path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.bySource[path]; ok && prev != lab.ID {
		r.dropLocked(prev)
	}
	r.bySource[path] = lab.ID
	r.labs[lab.ID] = lab
	r.logger.Debug("lab loaded", zap.String("id", lab.ID), zap.String("path", path), zap.Int("examples", len(lab.Examples)))
	return lab, nil
}

// Remove drops the lab loaded from path and returns its id. A built-in lab
// with the same id becomes active again.
func (r *Registry) Remove(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySource[path]
	if !ok {
		return "", false
	}
	delete(r.bySource, path)
	r.dropLocked(id)
	r.logger.Debug("lab removed", zap.String("id", id), zap.String("path", path))
	return id, true
}

func (r *Registry) dropLocked(id string) {
	if lab, ok := r.builtin[id]; ok {
		r.labs[id] = lab
		return
	}
	delete(r.labs, id)
}

// Validate checks that a lab is usable: it has an id, a known query language,
// only known datasets, and examples with unique ids and templates.
func Validate(lab *models.LabConfig) error {
	if lab.ID == "" {
		return errors.New("lab id is required")
	}
	switch lab.QueryLanguage {
	case models.QueryDSL, models.ESQL:
	default:
		return fmt.Errorf("unknown query language %q", lab.QueryLanguage)
	}
	for d := range lab.SearchFields {
		if !d.Valid() {
			return fmt.Errorf("search_fields: unknown dataset %q", d)
		}
	}
	for d := range lab.SampleQueries {
		if !d.Valid() {
			return fmt.Errorf("sample_queries: unknown dataset %q", d)
		}
	}
	for d := range lab.KeyDisplayFields {
		if !d.Valid() {
			return fmt.Errorf("key_display_fields: unknown dataset %q", d)
		}
	}
	seen := make(map[string]bool, len(lab.Examples))
	for _, ex := range lab.Examples {
		if ex.ID == "" {
			return errors.New("example id is required")
		}
		if seen[ex.ID] {
			return fmt.Errorf("duplicate example id %q", ex.ID)
		}
		seen[ex.ID] = true
		if !ex.Index.Valid() {
			return fmt.Errorf("example %s: unknown dataset %q", ex.ID, ex.Index)
		}
		if ex.Template.Shared() {
			if strings.TrimSpace(ex.Template.Text) == "" {
				return fmt.Errorf("example %s: template is empty", ex.ID)
			}
			continue
		}
		for d := range ex.Template.PerDataset {
			if !d.Valid() {
				return fmt.Errorf("example %s: template for unknown dataset %q", ex.ID, d)
			}
		}
	}
	return nil
}
