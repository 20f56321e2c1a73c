package domain

import (
	"fmt"
	"sort"
	"strings"
)

type Property struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type RelationshipPattern struct {
	Start string `json:"start"`
	Type  string `json:"type"`
	End   string `json:"end"`
}

// GraphSchema is the declared vocabulary a generated query may use.
type GraphSchema struct {
	NodeProperties         map[string][]Property `json:"node_properties"`
	RelationshipProperties map[string][]Property `json:"relationship_properties"`
	Relationships          []RelationshipPattern `json:"relationships"`
}

func (s GraphSchema) HasLabel(label string) bool {
	_, ok := s.NodeProperties[label]
	return ok
}

func (s GraphSchema) HasRelationshipType(relType string) bool {
	if _, ok := s.RelationshipProperties[relType]; ok {
		return true
	}
	for _, rel := range s.Relationships {
		if rel.Type == relType {
			return true
		}
	}
	return false
}

func (s GraphSchema) LabelHasProperty(label, property string) bool {
	return hasProperty(s.NodeProperties[label], property)
}

func (s GraphSchema) RelationshipHasProperty(relType, property string) bool {
	return hasProperty(s.RelationshipProperties[relType], property)
}

// AnyHasProperty reports whether any node label or relationship type declares property.
func (s GraphSchema) AnyHasProperty(property string) bool {
	for _, props := range s.NodeProperties {
		if hasProperty(props, property) {
			return true
		}
	}
	for _, props := range s.RelationshipProperties {
		if hasProperty(props, property) {
			return true
		}
	}
	return false
}

// Describe renders the schema in the form the query generator is prompted with.
func (s GraphSchema) Describe() string {
	var b strings.Builder
	b.WriteString("Node properties:\n")
	writeProperties(&b, s.NodeProperties)
	b.WriteString("Relationship properties:\n")
	writeProperties(&b, s.RelationshipProperties)
	b.WriteString("The relationships:\n")

	rels := append([]RelationshipPattern(nil), s.Relationships...)
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Start != rels[j].Start {
			return rels[i].Start < rels[j].Start
		}
		if rels[i].Type != rels[j].Type {
			return rels[i].Type < rels[j].Type
		}
		return rels[i].End < rels[j].End
	})
	for _, rel := range rels {
		fmt.Fprintf(&b, "(:%s)-[:%s]->(:%s)\n", rel.Start, rel.Type, rel.End)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeProperties(b *strings.Builder, byName map[string][]Property) {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		props := byName[name]
		if len(props) == 0 {
			continue
		}
		parts := make([]string, 0, len(props))
		for _, prop := range props {
			parts = append(parts, prop.Name+": "+prop.Type)
		}
		fmt.Fprintf(b, "%s {%s}\n", name, strings.Join(parts, ", "))
	}
}

func hasProperty(props []Property, name string) bool {
	for _, prop := range props {
		if prop.Name == name {
			return true
		}
	}
	return false
}
