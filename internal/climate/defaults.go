package climate

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/reference_tables.yaml
var defaultTablesYAML []byte

var (
	defaultTables     *ReferenceTables
	defaultTablesErr  error
	defaultTablesOnce sync.Once
)

// DefaultTables returns the calibration embedded in the binary.
// The embedded document is parsed once; later calls return the same tables.
func DefaultTables() (*ReferenceTables, error) {
	defaultTablesOnce.Do(func() {
		defaultTables, defaultTablesErr = ParseTables(defaultTablesYAML)
		if defaultTablesErr != nil {
			currentLogger().Error().Err(defaultTablesErr).Msg("failed to parse embedded reference tables")
			return
		}
		currentLogger().Debug().
			Str("version", defaultTables.Version()).
			Msg("loaded embedded reference tables")
	})
	return defaultTables, defaultTablesErr
}

// DefaultTablesYAML returns a copy of the embedded calibration document.
func DefaultTablesYAML() []byte {
	return bytes.Clone(defaultTablesYAML)
}

// LoadTables reads a calibration document from path.
func LoadTables(path string) (*ReferenceTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference tables: %w", err)
	}

	t, err := ParseTables(data)
	if err != nil {
		currentLogger().Error().Err(err).Str("path", path).Msg("rejected reference tables")
		return nil, err
	}

	currentLogger().Info().
		Str("path", path).
		Str("version", t.Version()).
		Msg("loaded reference tables")
	return t, nil
}

// ParseTables decodes and validates a YAML calibration document.
// Unknown fields are rejected so that misspelled keys do not silently fall
// back to zero values.
func ParseTables(data []byte) (*ReferenceTables, error) {
	var c Calibration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidTables, err)
	}
	return NewReferenceTables(c)
}
