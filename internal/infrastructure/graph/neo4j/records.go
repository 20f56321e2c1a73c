package neo4j

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func recordsToRows(keys []string, records []*neo4j.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(keys))
		for i, key := range keys {
			if i < len(record.Values) {
				row[key] = convertValue(record.Values[i])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// convertValue turns driver values into plain JSON-friendly values.
func convertValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case neo4j.Node:
		return convertMap(v.Props)
	case neo4j.Relationship:
		out := convertMap(v.Props)
		if _, ok := out["type"]; !ok {
			out["type"] = v.Type
		}
		return out
	case neo4j.Path:
		nodes := make([]any, 0, len(v.Nodes))
		for _, node := range v.Nodes {
			nodes = append(nodes, convertMap(node.Props))
		}
		return nodes
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		return convertMap(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}

func convertMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = convertValue(v)
	}
	return out
}

func buildSchema(nodeRecords, relRecords, patternRecords []*neo4j.Record) domain.GraphSchema {
	schema := domain.GraphSchema{
		NodeProperties:         map[string][]domain.Property{},
		RelationshipProperties: map[string][]domain.Property{},
	}

	for _, record := range nodeRecords {
		labels := stringList(recordValue(record, "nodeLabels"))
		prop := schemaProperty(record)
		for _, label := range labels {
			addProperty(schema.NodeProperties, label, prop)
		}
	}

	for _, record := range relRecords {
		relType := trimTypeName(recordString(record, "relType"))
		if relType == "" {
			continue
		}
		addProperty(schema.RelationshipProperties, relType, schemaProperty(record))
	}

	seen := map[domain.RelationshipPattern]struct{}{}
	for _, record := range patternRecords {
		pattern := domain.RelationshipPattern{
			Start: recordString(record, "start"),
			Type:  recordString(record, "type"),
			End:   recordString(record, "end"),
		}
		if pattern.Start == "" || pattern.Type == "" || pattern.End == "" {
			continue
		}
		if _, ok := seen[pattern]; ok {
			continue
		}
		seen[pattern] = struct{}{}
		schema.Relationships = append(schema.Relationships, pattern)
		for _, label := range []string{pattern.Start, pattern.End} {
			if _, ok := schema.NodeProperties[label]; !ok {
				schema.NodeProperties[label] = []domain.Property{}
			}
		}
	}

	for name, props := range schema.NodeProperties {
		sortProperties(props)
		schema.NodeProperties[name] = props
	}
	for name, props := range schema.RelationshipProperties {
		sortProperties(props)
		schema.RelationshipProperties[name] = props
	}
	return schema
}

// addProperty registers owner even when prop is empty so property-less
// labels remain known to the validator.
func addProperty(byOwner map[string][]domain.Property, owner string, prop *domain.Property) {
	props, ok := byOwner[owner]
	if !ok {
		props = []domain.Property{}
	}
	if prop != nil {
		for _, existing := range props {
			if existing.Name == prop.Name {
				byOwner[owner] = props
				return
			}
		}
		props = append(props, *prop)
	}
	byOwner[owner] = props
}

func schemaProperty(record *neo4j.Record) *domain.Property {
	name := recordString(record, "propertyName")
	if name == "" {
		return nil
	}
	types := stringList(recordValue(record, "propertyTypes"))
	propType := "ANY"
	if len(types) > 0 {
		propType = normalizeType(types[0])
	}
	return &domain.Property{Name: name, Type: propType}
}

func normalizeType(raw string) string {
	switch raw {
	case "String":
		return "STRING"
	case "Long":
		return "INTEGER"
	case "Double":
		return "FLOAT"
	case "Boolean":
		return "BOOLEAN"
	case "Date":
		return "DATE"
	case "DateTime", "LocalDateTime":
		return "DATE_TIME"
	}
	if strings.HasSuffix(raw, "Array") {
		return "LIST"
	}
	return strings.ToUpper(raw)
}

// trimTypeName turns ":`CITED`" into "CITED".
func trimTypeName(raw string) string {
	return strings.Trim(strings.TrimPrefix(raw, ":"), "`")
}

func sortProperties(props []domain.Property) {
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
}

func recordValue(record *neo4j.Record, key string) any {
	for i, k := range record.Keys {
		if k == key && i < len(record.Values) {
			return record.Values[i]
		}
	}
	return nil
}

func recordString(record *neo4j.Record, key string) string {
	if s, ok := recordValue(record, key).(string); ok {
		return s
	}
	return ""
}

func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
