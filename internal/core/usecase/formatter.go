package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

const NoResultsAnswer = "No results were found in the bibliographic database for your question."

const formatterSystemPrompt = `You are a helpful assistant that formats database query results into natural language responses.

Guidelines:
1. Do not include any information that is not present in the query results.
2. Do not mention technical details such as property names (for example 'p.title'), query syntax or database internals.
3. If the results are empty or None, politely say that no results were found.
4. When vector search was used, mention that the results were selected by relevance to the question.
5. When there are multiple items, list them in a clear, organized way.
6. Use the original question to frame the answer.`

type FormatRequest struct {
	Question   string
	Strategy   domain.Strategy
	Result     domain.GraphResult
	SubQueries *domain.Decomposition
	Articles   []domain.ArticleRef
}

type ResponseFormatter struct {
	generator ports.TextGenerator
}

func NewResponseFormatter(generator ports.TextGenerator) *ResponseFormatter {
	return &ResponseFormatter{generator: generator}
}

// Format turns the raw result into a user-facing answer. An empty result
// never reaches the model.
func (f *ResponseFormatter) Format(ctx context.Context, req FormatRequest) (string, error) {
	if req.Result.Empty() {
		return NoResultsAnswer, nil
	}

	rows, identifiers := plainRows(req.Result.Rows)
	raw, err := json.Marshal(rows)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "format response", fmt.Errorf("marshal rows: %w", err))
	}

	answer, err := f.generator.GenerateText(ctx, formatterSystemPrompt, buildFormatterPrompt(req, string(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "format response", err)
	}
	answer = scrubIdentifiers(answer, identifiers)
	if strings.TrimSpace(answer) == "" {
		return "", domain.WrapError(domain.ErrGeneration, "format response", fmt.Errorf("model returned empty answer"))
	}
	return strings.TrimSpace(answer), nil
}

func buildFormatterPrompt(req FormatRequest, rawResult string) string {
	vectorUsed := req.Strategy == domain.StrategyVectorSearch

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Query Type: %s\n", req.Strategy.QueryType())
	fmt.Fprintf(&b, "Raw Result: %s\n", rawResult)
	fmt.Fprintf(&b, "Vector Search Used: %t\n", vectorUsed)
	if vectorUsed && req.SubQueries != nil {
		fmt.Fprintf(&b, "Sub-queries: similarity=%q structured=%q\n", req.SubQueries.Similarity.Text, req.SubQueries.Structured.Text)
	}
	if vectorUsed && len(req.Articles) > 0 {
		b.WriteString("Article context (ordered by relevance):\n")
		for i, ref := range req.Articles {
			fmt.Fprintf(&b, "%d. %s\n", i+1, ref.Title)
		}
	}
	b.WriteString("\nWrite the answer now.")
	return b.String()
}

// plainRows renames "p.title" style columns to their short name. Short names
// that collide within a row get a numeric suffix ("title", "title_2") in
// column order. The returned map holds every renamed column.
func plainRows(rows []map[string]any) ([]map[string]any, map[string]string) {
	renamed := map[string]string{}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		plain := make(map[string]any, len(row))
		for _, key := range keys {
			if shortName(key) == key {
				plain[key] = row[key]
			}
		}
		for _, key := range keys {
			short := shortName(key)
			if short == key {
				continue
			}
			name := short
			for n := 2; ; n++ {
				if _, taken := plain[name]; !taken {
					break
				}
				name = fmt.Sprintf("%s_%d", short, n)
			}
			plain[name] = row[key]
			if _, ok := renamed[key]; !ok {
				renamed[key] = name
			}
		}
		out = append(out, plain)
	}
	return out, renamed
}

func shortName(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 || idx == len(key)-1 {
		return key
	}
	return key[idx+1:]
}

// scrubIdentifiers replaces raw column names echoed by the model, longest
// first so "p1.title" is never half-replaced by "p.title".
func scrubIdentifiers(text string, renamed map[string]string) string {
	identifiers := make([]string, 0, len(renamed))
	for id := range renamed {
		identifiers = append(identifiers, id)
	}
	sort.Slice(identifiers, func(i, j int) bool {
		if len(identifiers[i]) != len(identifiers[j]) {
			return len(identifiers[i]) > len(identifiers[j])
		}
		return identifiers[i] < identifiers[j]
	})
	for _, id := range identifiers {
		pattern := regexp.MustCompile(`'?` + regexp.QuoteMeta(id) + `'?`)
		text = pattern.ReplaceAllString(text, renamed[id])
	}
	return text
}
