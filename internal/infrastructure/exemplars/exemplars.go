// Package exemplars loads the question to graph-query pairs used to
// condition query generation.
package exemplars

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

//go:embed exemplars.yaml
var defaultCorpus []byte

// Load reads the corpus from path, or the embedded corpus when path is empty.
func Load(path string) ([]domain.Exemplar, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultCorpus)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exemplars %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]domain.Exemplar, error) {
	var items []domain.Exemplar
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse exemplars: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("exemplar corpus is empty")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.Query) == "" {
			return nil, fmt.Errorf("exemplar %d: question and query are required", i)
		}
	}
	return items, nil
}
