package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// settingsFile is the persisted layer between the defaults and the
// environment. It holds one JSON object per section, where the section is the
// part of a dotted key before the first dot:
//
//	{"source": {"driver": "mongo"}, "recommend": {"top_n": 10}}
type settingsFile struct {
	path     string
	sections map[string]map[string]any
}

// openSettings reads the settings file at path. A missing or empty file is an
// empty settings layer; a file that does not parse is an error.
func openSettings(path string) (*settingsFile, error) {
	f := &settingsFile{path: path, sections: make(map[string]map[string]any)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.sections); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if f.sections == nil {
		f.sections = make(map[string]map[string]any)
	}
	return f, nil
}

func splitKey(key string) (section, field string) {
	section, field, _ = strings.Cut(key, ".")
	return section, field
}

func (f *settingsFile) lookup(key string) (any, bool) {
	section, field := splitKey(key)
	v, ok := f.sections[section][field]
	return v, ok
}

func (f *settingsFile) set(key string, v any) error {
	section, field := splitKey(key)
	if f.sections[section] == nil {
		f.sections[section] = make(map[string]any)
	}
	f.sections[section][field] = v
	return f.save()
}

// unset removes key and reports whether it was present.
func (f *settingsFile) unset(key string) (bool, error) {
	section, field := splitKey(key)
	if _, ok := f.sections[section][field]; !ok {
		return false, nil
	}
	delete(f.sections[section], field)
	if len(f.sections[section]) == 0 {
		delete(f.sections, section)
	}
	return true, f.save()
}

func (f *settingsFile) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(f.sections, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return os.Rename(tmp, f.path)
}
