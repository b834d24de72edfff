package schema

import (
	"fmt"
	"strings"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
)

const PathSeparator = "."

// Scanner materializes one row selected with Schema.Columns.
type Scanner func(row session.Row) (any, error)

// Hydrator loads what a row cannot carry (collections) onto materialized objects.
type Hydrator func(s session.Session, entities []any) error

// Schema holds the queryable properties of one entity type and its storage mapping.
// It is mutated only while being registered.
type Schema struct {
	name       string
	table      string
	properties []Property
	index      map[string]int
	scanner    Scanner
	hydrator   Hydrator
}

func NewSchema(name, table string) *Schema {
	return &Schema{
		name:  name,
		table: table,
		index: make(map[string]int),
	}
}

// Add registers properties. A property with an existing name replaces the previous one.
func (s *Schema) Add(props ...Property) *Schema {
	for _, p := range props {
		if i, ok := s.index[p.Name]; ok {
			s.properties[i] = p
			continue
		}
		s.index[p.Name] = len(s.properties)
		s.properties = append(s.properties, p)
	}
	return s
}

func (s *Schema) WithScanner(scanner Scanner) *Schema {
	s.scanner = scanner
	return s
}

func (s *Schema) WithHydrator(hydrator Hydrator) *Schema {
	s.hydrator = hydrator
	return s
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Table() string {
	return s.table
}

func (s *Schema) Properties() []Property {
	result := make([]Property, len(s.properties))
	copy(result, s.properties)
	return result
}

func (s *Schema) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.properties[i], true
}

func (s *Schema) PersistedProperties() []Property {
	var result []Property
	for _, p := range s.properties {
		if p.Persisted {
			result = append(result, p)
		}
	}
	return result
}

// Columns returns the select list expected by the scanner, in declaration order.
func (s *Schema) Columns() []string {
	var columns []string
	for _, p := range s.properties {
		if p.Persisted && p.Column != "" && !p.IsCollection() {
			columns = append(columns, p.Column)
		}
	}
	return columns
}

func (s *Schema) Scan(row session.Row) (any, error) {
	if s.scanner == nil {
		return nil, fmt.Errorf("schema %q has no scanner", s.name)
	}
	return s.scanner(row)
}

func (s *Schema) HasHydrator() bool {
	return s.hydrator != nil
}

func (s *Schema) Hydrate(sess session.Session, entities []any) error {
	if s.hydrator == nil || len(entities) == 0 {
		return nil
	}
	return s.hydrator(sess, entities)
}

// ResolvePath walks a dotted path through nested schemas.
func (s *Schema) ResolvePath(path string) ([]Property, error) {
	if path == "" {
		return nil, &PathError{Schema: s.name, Path: path, Reason: "empty path"}
	}
	segments := strings.Split(path, PathSeparator)
	result := make([]Property, 0, len(segments))
	current := s
	for i, segment := range segments {
		if current == nil {
			return nil, &PathError{Schema: s.name, Path: path, Segment: segments[i-1], Reason: "segment is not navigable"}
		}
		p, ok := current.Property(segment)
		if !ok {
			return nil, &PathError{Schema: s.name, Path: path, Segment: segment, Reason: "unknown property"}
		}
		result = append(result, p)
		if i < len(segments)-1 {
			if !p.IsNavigable() {
				return nil, &PathError{Schema: s.name, Path: path, Segment: segment, Reason: "segment is not navigable"}
			}
			current = p.Schema
		}
	}
	return result, nil
}

type PathError struct {
	Schema  string
	Path    string
	Segment string
	Reason  string
}

func (e *PathError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("cannot resolve path %q on %s: %s", e.Path, e.Schema, e.Reason)
	}
	return fmt.Sprintf("cannot resolve path %q on %s: %s %q", e.Path, e.Schema, e.Reason, e.Segment)
}

// Terminal returns the last property of a resolved path.
func Terminal(path []Property) Property {
	return path[len(path)-1]
}

// IsPersistedPath reports whether the storage engine can reach every segment.
func IsPersistedPath(path []Property) bool {
	for _, p := range path {
		if !p.Persisted {
			return false
		}
	}
	return true
}
