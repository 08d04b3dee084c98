package fixtures

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Package fixtures substitutes bundled resources for network responses in simulated mode.

//go:embed data
var bundled embed.FS

// Kind selects which fetch an entry serves.
type Kind string

const (
	// KindAny entries serve both text and image fetches.
	KindAny   Kind = ""
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Entry maps a URL substring to a file inside the fixture filesystem.
type Entry struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Pattern string `json:"pattern" yaml:"pattern"`
	File    string `json:"file" yaml:"file"`
}

func (e Entry) serves(kind Kind) bool {
	return e.Kind == KindAny || e.Kind == kind
}

// DefaultTable lists the bundled fixtures in match order. Manifests only serve text
// fetches and textures only serve image fetches.
// augments.json must precede the numbered manifests.
var DefaultTable = []Entry{
	{Kind: KindText, Pattern: "augments.json", File: "augments.json"},
	{Kind: KindText, Pattern: "augments.php", File: "augments.json"},
	{Kind: KindText, Pattern: "augment1.json", File: "augment1.json"},
	{Kind: KindText, Pattern: "augment2.json", File: "augment2.json"},
	{Kind: KindText, Pattern: "augment3.json", File: "augment3.json"},
	{Kind: KindText, Pattern: "augment4.json", File: "augment4.json"},
	{Kind: KindImage, Pattern: "one.png", File: "one.png"},
	{Kind: KindImage, Pattern: "two.png", File: "two.png"},
	{Kind: KindImage, Pattern: "three.png", File: "three.png"},
}

// Resolver looks up fixture streams for URLs.
type Resolver struct {
	fsys    fs.FS
	entries []Entry
}

// New builds a resolver over fsys using the given table.
func New(fsys fs.FS, entries []Entry) *Resolver {
	cp := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Pattern == "" {
			continue
		}
		cp = append(cp, e)
	}
	return &Resolver{fsys: fsys, entries: cp}
}

// Default returns a resolver over the fixtures compiled into the binary.
func Default() *Resolver {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		// embed paths are fixed at build time
		panic(fmt.Sprintf("fixtures: bundled data missing: %v", err))
	}
	return New(sub, DefaultTable)
}

// Load builds a resolver from an optional fixtures directory and an optional table file.
// Empty arguments fall back to the bundled data and DefaultTable.
func Load(dir, tableFile string) (*Resolver, error) {
	r := Default()

	fsys := r.fsys
	if dir = strings.TrimSpace(dir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("stat fixtures dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("fixtures dir %q is not a directory", dir)
		}
		fsys = os.DirFS(dir)
	}

	entries := DefaultTable
	if strings.TrimSpace(tableFile) != "" {
		loaded, err := LoadTable(tableFile)
		if err != nil {
			return nil, err
		}
		entries = loaded
	}

	return New(fsys, entries), nil
}

// Match returns the first entry serving kind whose pattern occurs in url.
func (r *Resolver) Match(kind Kind, url string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	for _, e := range r.entries {
		if e.serves(kind) && strings.Contains(url, e.Pattern) {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve opens the fixture stream for a fetch of kind. ok is false when no entry
// matches, in which case the caller falls through to the network. The caller closes
// the stream.
func (r *Resolver) Resolve(kind Kind, url string) (io.ReadCloser, bool, error) {
	entry, ok := r.Match(kind, url)
	if !ok {
		return nil, false, nil
	}
	f, err := r.fsys.Open(entry.File)
	if err != nil {
		return nil, true, fmt.Errorf("open fixture %s: %w", entry.File, err)
	}
	return f, true, nil
}

// Entries returns a copy of the match table.
func (r *Resolver) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
