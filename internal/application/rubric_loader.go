package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/domain"
)

// RubricLoader parses, validates and caches YAML rubric definitions.
// Definitions are cached by the SHA256 hash of their normalized form, so
// documents differing only in whitespace or comments share one entry.
type RubricLoader struct {
	validator *validator.Validate
	// cache maps a SHA256 hash to a validated definition. Entries are never
	// handed out directly; callers receive copies.
	cache   map[string]domain.RubricDefinition
	cacheMu sync.RWMutex
	// sf collapses concurrent loads of the same document.
	sf singleflight.Group
}

// NewRubricLoader creates a loader with an empty cache.
func NewRubricLoader() (*RubricLoader, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &RubricLoader{
		validator: v,
		cache:     make(map[string]domain.RubricDefinition),
	}, nil
}

// LoadFromFile loads a rubric definition from a YAML file.
func (rl *RubricLoader) LoadFromFile(path string) (domain.RubricDefinition, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return domain.RubricDefinition{}, fmt.Errorf("failed to read file: %w", err)
	}
	return rl.load(data)
}

// LoadFromReader loads a rubric definition from r.
func (rl *RubricLoader) LoadFromReader(r io.Reader) (domain.RubricDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RubricDefinition{}, fmt.Errorf("failed to read data: %w", err)
	}
	return rl.load(data)
}

func (rl *RubricLoader) load(data []byte) (domain.RubricDefinition, error) {
	def, err := parseRubricYAML(data)
	if err != nil {
		return domain.RubricDefinition{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := definitionHash(def)
	if err != nil {
		return domain.RubricDefinition{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := rl.sf.Do(hash, func() (any, error) {
		if cached, ok := rl.cached(hash); ok {
			return cached, nil
		}

		if err := rl.validate(def); err != nil {
			return nil, err
		}

		rl.store(hash, def)
		return def, nil
	})
	if err != nil {
		return domain.RubricDefinition{}, err
	}

	return cloneDefinition(v.(domain.RubricDefinition)), nil
}

// parseRubricYAML decodes strictly: unknown keys are errors.
func parseRubricYAML(data []byte) (domain.RubricDefinition, error) {
	var def domain.RubricDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&def); err != nil {
		return domain.RubricDefinition{}, fmt.Errorf("YAML decode failed: %w", err)
	}
	return def, nil
}

func (rl *RubricLoader) validate(def domain.RubricDefinition) error {
	if err := rl.validator.Struct(def); err != nil {
		return toValidationError("RubricDefinition", err)
	}
	return def.Validate()
}

// definitionHash re-encodes def with fixed indentation and hashes the
// result.
func definitionHash(def domain.RubricDefinition) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(def); err != nil {
		return "", fmt.Errorf("failed to encode definition for hashing: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func (rl *RubricLoader) cached(hash string) (domain.RubricDefinition, bool) {
	rl.cacheMu.RLock()
	defer rl.cacheMu.RUnlock()

	def, ok := rl.cache[hash]
	return def, ok
}

func (rl *RubricLoader) store(hash string, def domain.RubricDefinition) {
	rl.cacheMu.Lock()
	defer rl.cacheMu.Unlock()

	rl.cache[hash] = def
}

// CacheSize returns the number of cached definitions.
func (rl *RubricLoader) CacheSize() int {
	rl.cacheMu.RLock()
	defer rl.cacheMu.RUnlock()

	return len(rl.cache)
}

// ClearCache drops every cached definition.
func (rl *RubricLoader) ClearCache() {
	rl.cacheMu.Lock()
	defer rl.cacheMu.Unlock()

	rl.cache = make(map[string]domain.RubricDefinition)
}

func cloneDefinition(def domain.RubricDefinition) domain.RubricDefinition {
	out := domain.RubricDefinition{Criteria: make([]domain.CriterionDefinition, len(def.Criteria))}
	for i, c := range def.Criteria {
		out.Criteria[i] = domain.CriterionDefinition{
			Name:       c.Name,
			Indicators: append([]domain.IndicatorDefinition(nil), c.Indicators...),
		}
	}
	return out
}
