// Package promptbank loads a versioned prompt descriptor: system text, user
// template, schema instructions, and the paraphrase templates a run draws
// from. The version string is stored verbatim on every sample row and
// participates in cache identity, so loading never mutates it.
package promptbank

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/beliefbench/errs"
)

// Bank is the fully-resolved prompt descriptor for one prompt_version.
type Bank struct {
	Version            string   `yaml:"version"`
	SystemText         string   `yaml:"system_text"`
	SchemaInstructions string   `yaml:"schema_instructions"`
	UserTemplate       string   `yaml:"user_template"`
	Paraphrases        []string `yaml:"paraphrases"`
}

// validate checks that a decoded Bank is well-formed.
func (b *Bank) validate() error {
	if b.Version == "" {
		return fmt.Errorf("%w: missing version", errs.ErrPromptMalformed)
	}
	if err := ValidateVersion(b.Version); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPromptMalformed, err)
	}
	if b.SystemText == "" {
		return fmt.Errorf("%w: missing system_text", errs.ErrPromptMalformed)
	}
	if b.UserTemplate == "" {
		return fmt.Errorf("%w: missing user_template", errs.ErrPromptMalformed)
	}
	if len(b.Paraphrases) == 0 {
		return fmt.Errorf("%w: bank has no paraphrases", errs.ErrPromptMalformed)
	}
	return nil
}

// Loader resolves a prompt_version to its Bank.
type Loader interface {
	Load(version string) (*Bank, error)
}

// FileLoader loads prompt descriptors from YAML files named "<version>.yaml"
// under a base directory.
type FileLoader struct {
	BaseDir string
}

// NewFileLoader creates a FileLoader rooted at baseDir.
func NewFileLoader(baseDir string) *FileLoader {
	return &FileLoader{BaseDir: baseDir}
}

// Load implements Loader.
func (l *FileLoader) Load(version string) (*Bank, error) {
	path := filepath.Join(l.BaseDir, version+".yaml")

	data, err := os.ReadFile(path) // #nosec G304 -- version is validated below, baseDir is operator-controlled config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: prompt_version %q", errs.ErrPromptNotFound, version)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", errs.ErrPromptMalformed, path, err)
	}

	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", errs.ErrPromptMalformed, path, err)
	}

	if bank.Version != version {
		return nil, fmt.Errorf("%w: descriptor at %s declares version %q, expected %q",
			errs.ErrPromptMalformed, path, bank.Version, version)
	}

	if err := bank.validate(); err != nil {
		return nil, err
	}

	return &bank, nil
}

// StaticLoader resolves versions from an in-memory map, for tests and the
// mock/replay providers where no filesystem bank is configured.
type StaticLoader struct {
	Banks map[string]*Bank
}

// NewStaticLoader creates a StaticLoader from the given banks, keyed by version.
func NewStaticLoader(banks ...*Bank) *StaticLoader {
	m := make(map[string]*Bank, len(banks))
	for _, b := range banks {
		m[b.Version] = b
	}
	return &StaticLoader{Banks: m}
}

// Load implements Loader.
func (l *StaticLoader) Load(version string) (*Bank, error) {
	bank, ok := l.Banks[version]
	if !ok {
		return nil, fmt.Errorf("%w: prompt_version %q", errs.ErrPromptNotFound, version)
	}
	if err := bank.validate(); err != nil {
		return nil, err
	}
	return bank, nil
}
