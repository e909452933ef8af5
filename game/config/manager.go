package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mkowalczyk/seabattle/game/board"
)

var ErrRulesNotFound = errors.New("rules configuration not found")

// ShipClass describes one entry of the fleet: how many ships of a type and
// length a placement must produce.
type ShipClass struct {
	Type   board.ShipType `json:"type" yaml:"type"`
	Length int            `json:"length" yaml:"length"`
	Count  int            `json:"count" yaml:"count"`
}

// Rules are the tunable game rules: the fleet composition used for bot
// placement and the retry budget per ship before placement gives up.
type Rules struct {
	Name             string      `json:"name" yaml:"name"`
	Description      string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fleet            []ShipClass `json:"fleet" yaml:"fleet"`
	PlacementRetries int         `json:"placement_retries" yaml:"placement_retries"`
}

// TotalShips returns the number of ships the fleet produces.
func (r *Rules) TotalShips() int {
	total := 0
	for _, class := range r.Fleet {
		total += class.Count
	}
	return total
}

// DefaultRules returns the classic fleet: 1 huge, 2 large, 3 medium,
// 4 small, with a 1000-attempt placement budget per ship.
func DefaultRules() *Rules {
	return &Rules{
		Name:        "classic",
		Description: "Classic 10x10 fleet",
		Fleet: []ShipClass{
			{Type: board.ShipHuge, Length: 4, Count: 1},
			{Type: board.ShipLarge, Length: 3, Count: 2},
			{Type: board.ShipMedium, Length: 2, Count: 3},
			{Type: board.ShipSmall, Length: 1, Count: 4},
		},
		PlacementRetries: 1000,
	}
}

// Manager loads rules configurations from a directory. Files may be JSON
// or YAML; a missing directory or name falls back to the built-in default.
type Manager struct {
	dir string
	mu  sync.RWMutex
}

// NewManager creates a rules manager for the given directory. The
// directory does not have to exist; loading then only serves the default.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// GetDefault returns the built-in rules.
func (m *Manager) GetDefault() *Rules {
	return DefaultRules()
}

// Load reads the named rules file from the config directory, trying
// <name>.json, <name>.yaml and <name>.yml in that order. An empty name
// returns the default rules.
func (m *Manager) Load(name string) (*Rules, error) {
	if name == "" || name == "default" || name == "classic" {
		return DefaultRules(), nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(m.dir, name+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		rules, err := parseRules(data, ext)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rules %s: %w", path, err)
		}
		if err := ValidateRules(rules); err != nil {
			return nil, fmt.Errorf("invalid rules %s: %w", path, err)
		}
		return rules, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRulesNotFound, name)
}

// List returns the names of all rules files present in the directory,
// always including the built-in default first.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := []string{"classic"}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return names
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch ext {
		case ".json", ".yaml", ".yml":
			names = append(names, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	return names
}

// Save writes rules to the directory as JSON, creating it if needed.
func (m *Manager) Save(name string, rules *Rules) error {
	if err := ValidateRules(rules); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	path := filepath.Join(m.dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}

// ValidateRules checks a rules set for obviously broken values.
func ValidateRules(rules *Rules) error {
	if rules == nil {
		return errors.New("rules cannot be nil")
	}
	if rules.Name == "" {
		return errors.New("rules name is required")
	}
	if len(rules.Fleet) == 0 {
		return errors.New("fleet cannot be empty")
	}
	for _, class := range rules.Fleet {
		if class.Length < 1 || class.Length > board.Size {
			return fmt.Errorf("ship class %q has invalid length %d", class.Type, class.Length)
		}
		if class.Count < 1 {
			return fmt.Errorf("ship class %q has invalid count %d", class.Type, class.Count)
		}
	}
	if rules.PlacementRetries < 1 {
		return errors.New("placement_retries must be positive")
	}
	return nil
}

func parseRules(data []byte, ext string) (*Rules, error) {
	var rules Rules
	if ext == ".json" {
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, err
		}
		return &rules, nil
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}
