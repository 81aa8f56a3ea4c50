package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Answers is the persisted record of interactive-style choices, keyed by
// section and option name. It is loaded before every run and saved after,
// success or failure, so a resumed run never re-prompts.
type Answers struct {
	Sections map[string]map[string]string `yaml:"sections"`
}

// LoadAnswersFile reads an answerfile. A missing file yields an empty set.
func LoadAnswersFile(path string) (*Answers, error) {
	a := &Answers{Sections: make(map[string]map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answerfile %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to parse answerfile %s: %w", path, err)
	}
	if a.Sections == nil {
		a.Sections = make(map[string]map[string]string)
	}
	return a, nil
}

// Get returns the recorded answer for a section option, if any.
func (a *Answers) Get(section, key string) (string, bool) {
	opts, ok := a.Sections[section]
	if !ok {
		return "", false
	}
	value, ok := opts[key]
	return value, ok
}

// Set records an answer.
func (a *Answers) Set(section, key, value string) {
	if a.Sections == nil {
		a.Sections = make(map[string]map[string]string)
	}
	if a.Sections[section] == nil {
		a.Sections[section] = make(map[string]string)
	}
	a.Sections[section][key] = value
}

// Save writes the answerfile.
func (a *Answers) Save(path string) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal answerfile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create answerfile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write answerfile %s: %w", path, err)
	}
	return nil
}
