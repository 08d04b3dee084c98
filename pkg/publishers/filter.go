package publishers

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Values accepted in an EventFilter.
const (
	ResourceText  = "text"
	ResourceImage = "image"
	StatusOK      = "OK"
	StatusER      = "ER"
)

// EventFilter restricts which fetch events reach a publisher.
// An empty list matches every value.
type EventFilter struct {
	Resources []string `json:"resources" yaml:"resources"`
	Statuses  []string `json:"statuses" yaml:"statuses"`
}

// Matches reports whether evt passes the filter. A nil filter matches everything.
func (f *EventFilter) Matches(evt Event) bool {
	if f == nil {
		return true
	}
	if len(f.Resources) > 0 && !slices.Contains(f.Resources, evt.Resource) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, evt.Status) {
		return false
	}
	return true
}

func sanitizeFilter(f *EventFilter) *EventFilter {
	if f == nil {
		return nil
	}
	out := EventFilter{
		Resources: normalizeList(f.Resources, strings.ToLower),
		Statuses:  normalizeList(f.Statuses, strings.ToUpper),
	}
	if len(out.Resources) == 0 && len(out.Statuses) == 0 {
		return nil
	}
	return &out
}

func normalizeList(in []string, norm func(string) string) []string {
	var out []string
	for _, v := range in {
		v = norm(strings.TrimSpace(v))
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func validateFilter(id string, f *EventFilter) error {
	if f == nil {
		return nil
	}
	for _, r := range f.Resources {
		if r != ResourceText && r != ResourceImage {
			return fmt.Errorf("filter.resources: unknown resource %q for publisher %q", r, id)
		}
	}
	for _, s := range f.Statuses {
		if s != StatusOK && s != StatusER {
			return fmt.Errorf("filter.statuses: unknown status %q for publisher %q", s, id)
		}
	}
	return nil
}

// filteredPublisher only forwards events its filter accepts.
type filteredPublisher struct {
	Publisher
	filter *EventFilter
}

func withFilter(p Publisher, f *EventFilter) Publisher {
	if f == nil {
		return p
	}
	return &filteredPublisher{Publisher: p, filter: f}
}

// Accepts is consulted by Fanout before Publish.
func (p *filteredPublisher) Accepts(evt Event) bool { return p.filter.Matches(evt) }

func (p *filteredPublisher) Publish(ctx context.Context, evt Event) error {
	if !p.Accepts(evt) {
		return nil
	}
	return p.Publisher.Publish(ctx, evt)
}

func (p *filteredPublisher) Close() error {
	if c, ok := p.Publisher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type acceptor interface {
	Accepts(evt Event) bool
}
