package neo4j

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

// ErrQueryRejected marks a generated query that failed validation.
var ErrQueryRejected = errors.New("graph query rejected")

var (
	stringLiteral   = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)
	blockComment    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment     = regexp.MustCompile(`//[^\n]*`)
	forbiddenClause = regexp.MustCompile(`(?i)(?:^|[^.\w])(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|CALL|LOAD\s+CSV)\b`)

	nodePattern = regexp.MustCompile(`\(\s*([A-Za-z_]\w*)?\s*(:\s*[A-Za-z_]\w*(?:\s*[:|&]\s*[A-Za-z_]\w*)*)\s*(\{[^{}]*\})?\s*\)`)
	relPattern  = regexp.MustCompile(`-\s*\[\s*([A-Za-z_]\w*)?\s*(?::\s*([A-Za-z_]\w*(?:\s*\|\s*:?\s*[A-Za-z_]\w*)*))?\s*(?:\*[\d.]*)?\s*(\{[^{}]*\})?\s*\]`)
	bareNode    = regexp.MustCompile(`(?:^|[^\w])\(\s*([A-Za-z_]\w*)\s*(\{[^{}]*\})?\s*\)`)

	identifier    = regexp.MustCompile(`[A-Za-z_]\w*`)
	mapKey        = regexp.MustCompile(`([A-Za-z_]\w*)\s*:`)
	propertyRef   = regexp.MustCompile(`(?:^|[^.\w])([A-Za-z_]\w*)\.([A-Za-z_]\w*)((?:\.[A-Za-z_]\w*)*\s*\()?`)
	projection    = regexp.MustCompile(`(?:^|[^.\w])([A-Za-z_]\w*)\s*\{([^{}]*)\}`)
	projectionKey = regexp.MustCompile(`(?:^|,)\s*\.([A-Za-z_]\w*)`)
	mapLiteral    = regexp.MustCompile(`\{[^{}]*\}`)
	labelCheck    = regexp.MustCompile(`(?:^|[^\w.$])[A-Za-z_]\w*\s*:\s*([A-Za-z_]\w*(?:\s*[:|&]\s*[A-Za-z_]\w*)*)`)
	dynamicAccess = regexp.MustCompile(`([A-Za-z_]\w*)\[\s*(?:''|\$)`)
)

type binding struct {
	relationship bool
	owners       map[string]struct{}
}

// ValidateQuery checks a generated read query against the declared schema.
// Labels, relationship types and property keys must be declared. Properties
// of variables not bound by a pattern must exist somewhere in the schema.
// Writes, procedure calls and dynamic property access are rejected.
func ValidateQuery(schema domain.GraphSchema, query string) error {
	cleaned := normalizeQuery(query)
	if strings.TrimSpace(cleaned) == "" {
		return fmt.Errorf("%w: empty query", ErrQueryRejected)
	}
	if match := forbiddenClause.FindStringSubmatch(cleaned); match != nil {
		return fmt.Errorf("%w: %s clause is not allowed", ErrQueryRejected, strings.ToUpper(strings.Join(strings.Fields(match[1]), " ")))
	}
	if match := dynamicAccess.FindStringSubmatch(cleaned); match != nil {
		return fmt.Errorf("%w: dynamic property access on %s is not allowed", ErrQueryRejected, match[1])
	}

	bindings := map[string]*binding{}
	bind := func(name string, relationship bool, owners []string) {
		if name == "" {
			return
		}
		b, ok := bindings[name]
		if !ok {
			b = &binding{relationship: relationship, owners: map[string]struct{}{}}
			bindings[name] = b
		}
		for _, owner := range owners {
			b.owners[owner] = struct{}{}
		}
	}

	for _, match := range nodePattern.FindAllStringSubmatch(cleaned, -1) {
		labels := identifier.FindAllString(match[2], -1)
		for _, label := range labels {
			if !schema.HasLabel(label) {
				return fmt.Errorf("%w: unknown node label %q", ErrQueryRejected, label)
			}
		}
		if err := checkInlineMap(schema, match[3], labels, false); err != nil {
			return err
		}
		bind(match[1], false, labels)
	}

	for _, match := range relPattern.FindAllStringSubmatch(cleaned, -1) {
		types := identifier.FindAllString(match[2], -1)
		for _, relType := range types {
			if !schema.HasRelationshipType(relType) {
				return fmt.Errorf("%w: unknown relationship type %q", ErrQueryRejected, relType)
			}
		}
		if err := checkInlineMap(schema, match[3], types, true); err != nil {
			return err
		}
		bind(match[1], true, types)
	}

	for _, match := range bareNode.FindAllStringSubmatch(cleaned, -1) {
		if err := checkInlineMap(schema, match[2], nil, false); err != nil {
			return err
		}
		bind(match[1], false, nil)
	}

	if err := checkLabelPredicates(schema, cleaned); err != nil {
		return err
	}

	for _, match := range propertyRef.FindAllStringSubmatch(cleaned, -1) {
		if match[3] != "" {
			// namespaced function call such as date.truncate(
			continue
		}
		if err := checkProperty(schema, bindings, match[1], match[2]); err != nil {
			return err
		}
	}
	for _, match := range projection.FindAllStringSubmatch(cleaned, -1) {
		for _, key := range projectionKey.FindAllStringSubmatch(match[2], -1) {
			if err := checkProperty(schema, bindings, match[1], key[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeQuery blanks literals and comments so their contents are never
// mistaken for query structure, and drops identifier quoting.
func normalizeQuery(query string) string {
	out := blockComment.ReplaceAllString(query, " ")
	out = stringLiteral.ReplaceAllString(out, "''")
	out = lineComment.ReplaceAllString(out, " ")
	return strings.ReplaceAll(out, "`", "")
}

// checkLabelPredicates validates label tests such as WHERE p:Publication that
// appear outside node patterns.
func checkLabelPredicates(schema domain.GraphSchema, cleaned string) error {
	residual := nodePattern.ReplaceAllString(cleaned, " ")
	residual = relPattern.ReplaceAllString(residual, " ")
	for {
		next := mapLiteral.ReplaceAllString(residual, " ")
		if next == residual {
			break
		}
		residual = next
	}
	for _, match := range labelCheck.FindAllStringSubmatch(residual, -1) {
		for _, label := range identifier.FindAllString(match[1], -1) {
			if !schema.HasLabel(label) {
				return fmt.Errorf("%w: unknown node label %q", ErrQueryRejected, label)
			}
		}
	}
	return nil
}

func checkInlineMap(schema domain.GraphSchema, inline string, owners []string, relationship bool) error {
	if inline == "" {
		return nil
	}
	for _, key := range mapKey.FindAllStringSubmatch(inline, -1) {
		if !ownersHaveProperty(schema, owners, relationship, key[1]) {
			return fmt.Errorf("%w: unknown property %q", ErrQueryRejected, key[1])
		}
	}
	return nil
}

func checkProperty(schema domain.GraphSchema, bindings map[string]*binding, variable, property string) error {
	b, ok := bindings[variable]
	if !ok {
		if !schema.AnyHasProperty(property) {
			return fmt.Errorf("%w: unknown property %s.%s", ErrQueryRejected, variable, property)
		}
		return nil
	}
	owners := make([]string, 0, len(b.owners))
	for owner := range b.owners {
		owners = append(owners, owner)
	}
	if !ownersHaveProperty(schema, owners, b.relationship, property) {
		return fmt.Errorf("%w: unknown property %s.%s", ErrQueryRejected, variable, property)
	}
	return nil
}

func ownersHaveProperty(schema domain.GraphSchema, owners []string, relationship bool, property string) bool {
	if len(owners) == 0 {
		return schema.AnyHasProperty(property)
	}
	for _, owner := range owners {
		if relationship && schema.RelationshipHasProperty(owner, property) {
			return true
		}
		if !relationship && schema.LabelHasProperty(owner, property) {
			return true
		}
	}
	return false
}
