package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Fixtures []Entry `json:"fixtures" yaml:"fixtures"`
}

// LoadTable loads a fixture match table from a YAML or JSON file.
func LoadTable(path string) ([]Entry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("fixtures file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read fixtures file: %w", err)
	}

	tbl, err := parseTable(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(tbl.Fixtures) == 0 {
		return nil, errors.New("fixtures file contains no fixtures entries")
	}

	seen := make(map[Entry]struct{}, len(tbl.Fixtures))
	for i := range tbl.Fixtures {
		e := sanitizeEntry(tbl.Fixtures[i])
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("fixtures[%d]: %w", i, err)
		}
		key := Entry{Kind: e.Kind, Pattern: e.Pattern}
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("duplicate fixture pattern %q for kind %q", e.Pattern, e.Kind)
		}
		seen[key] = struct{}{}
		tbl.Fixtures[i] = e
	}
	return tbl.Fixtures, nil
}

type unmarshalFn func([]byte, any) error

func parseTable(data []byte, ext string) (tableFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var tbl tableFile
		if err := d.fn(data, &tbl); err == nil {
			return tbl, nil
		}
	}

	return tableFile{}, errors.New("fixtures file format not recognized (expected YAML or JSON)")
}

func sanitizeEntry(e Entry) Entry {
	e.Kind = Kind(strings.ToLower(strings.TrimSpace(string(e.Kind))))
	e.Pattern = strings.TrimSpace(e.Pattern)
	e.File = strings.TrimSpace(e.File)
	return e
}

func validateEntry(e Entry) error {
	if e.Pattern == "" {
		return errors.New("pattern is required")
	}
	switch e.Kind {
	case KindAny, KindText, KindImage:
	default:
		return fmt.Errorf("unknown kind %q for pattern %q", e.Kind, e.Pattern)
	}
	if e.File == "" {
		return fmt.Errorf("file is required for pattern %q", e.Pattern)
	}
	if !fs.ValidPath(e.File) {
		return fmt.Errorf("file %q for pattern %q is not a valid relative path", e.File, e.Pattern)
	}
	return nil
}
