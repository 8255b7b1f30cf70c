package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/effect/params"
)

// ErrUnknownPreset is returned by Preset for names without a factory preset.
var ErrUnknownPreset = errors.New("unknown preset")

// factoryPresets are starting points for common material. Values are raw
// parameter units.
var factoryPresets = map[string]map[string]float64{
	"default": {
		"input gain": 0, "threshold": 0, "ratio": 3, "attack": 3,
		"release": 3, "output gain": 0, "mixer": 100,
	},
	"drums": {
		"input gain": 0, "threshold": -24, "ratio": 8, "attack": 0,
		"release": 2, "output gain": 0, "mixer": 45,
	},
	"vocals": {
		"input gain": 0, "threshold": -18, "ratio": 4, "attack": 2,
		"release": 4, "output gain": 1.5, "mixer": 60,
	},
	"bus glue": {
		"input gain": 0, "threshold": -12, "ratio": 2, "attack": 8,
		"release": 6, "output gain": 0, "mixer": 70,
	},
}

// PresetNames returns the factory preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(factoryPresets))
	for name := range factoryPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the factory preset document with the given name.
func Preset(name string) (Document, error) {
	values, ok := factoryPresets[strings.ToLower(name)]
	if !ok {
		return Document{}, fmt.Errorf("preset %q: %w", name, ErrUnknownPreset)
	}

	doc := Document{
		Format:     Format,
		Version:    Version,
		Name:       name,
		Parameters: make(map[string]float64, len(values)),
	}
	for k, v := range values {
		doc.Parameters[k] = v
	}
	return doc, nil
}

// SaveFile writes the store to path as a named preset.
func SaveFile(path, name string, store *params.Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save preset %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save preset %s: %w", path, err)
	}

	if err := Encode(f, Capture(store, name)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save preset %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "SaveFile",
		"path":     path,
		"name":     name,
	}).Info("Preset saved")
	return nil
}

// LoadFile restores the store from a preset file. On error the store is
// unchanged.
func LoadFile(path string, store *params.Store) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("load preset %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return Document{}, fmt.Errorf("load preset %s: %w", path, err)
	}

	ignored, err := doc.Apply(store)
	if err != nil {
		return Document{}, fmt.Errorf("load preset %s: %w", path, err)
	}

	fields := logrus.Fields{
		"function": "LoadFile",
		"path":     path,
		"name":     doc.Name,
	}
	if len(ignored) > 0 {
		fields["ignored"] = ignored
	}
	logrus.WithFields(fields).Info("Preset loaded")

	return doc, nil
}
