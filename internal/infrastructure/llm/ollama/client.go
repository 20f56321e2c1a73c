package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, Options{})
}

func NewWithOptions(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// StrategyClassifier asks the model for a routing label under an enum schema.
type StrategyClassifier struct {
	client *Client
}

func NewStrategyClassifier(client *Client) *StrategyClassifier {
	return &StrategyClassifier{client: client}
}

func (c *StrategyClassifier) ClassifyStrategy(ctx context.Context, question string) (string, error) {
	respText, err := c.client.generateStructured(ctx, "route", routerSystemPrompt, buildRouterPrompt(question), routerSchema)
	if err != nil {
		return "", err
	}

	var result struct {
		Datasource string `json:"datasource"`
	}
	if err := decodeStructured(routerSchema, respText, &result); err != nil {
		return "", fmt.Errorf("parse routing output: %w", err)
	}
	return result.Datasource, nil
}

// SubQueryGenerator asks the model for purpose-tagged sub-queries.
type SubQueryGenerator struct {
	client *Client
}

func NewSubQueryGenerator(client *Client) *SubQueryGenerator {
	return &SubQueryGenerator{client: client}
}

func (g *SubQueryGenerator) GenerateSubQueries(ctx context.Context, question string) ([]domain.SubQuery, error) {
	respText, err := g.client.generateStructured(ctx, "decompose", decomposerSystemPrompt, buildDecomposerPrompt(question), decomposerSchema)
	if err != nil {
		return nil, err
	}

	var result struct {
		SubQueries []struct {
			Purpose  string `json:"purpose"`
			SubQuery string `json:"sub_query"`
		} `json:"sub_queries"`
	}
	if err := decodeStructured(decomposerSchema, respText, &result); err != nil {
		return nil, fmt.Errorf("parse decomposition output: %w", err)
	}

	out := make([]domain.SubQuery, 0, len(result.SubQueries))
	for _, item := range result.SubQueries {
		purpose, _ := domain.ParsePurpose(item.Purpose)
		out = append(out, domain.SubQuery{Text: item.SubQuery, Purpose: purpose})
	}
	return out, nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "embed", "/api/embed", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed returned %d vectors for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Model identifies the embedding model, used to namespace cached vectors.
func (e *Embedder) Model() string {
	return e.client.embedModel
}

// Generator produces free text: graph queries and formatted answers.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateQuery(ctx context.Context, prompt string) (string, error) {
	return g.client.generateText(ctx, "generate_query", "", prompt)
}

func (g *Generator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	return g.client.generateText(ctx, "generate_text", system, prompt)
}

func (c *Client) generateStructured(ctx context.Context, operation, system, prompt string, schema map[string]any) (string, error) {
	reqBody := map[string]any{
		"model":   c.genModel,
		"system":  system,
		"prompt":  prompt,
		"stream":  false,
		"format":  schema,
		"options": map[string]any{"temperature": 0},
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generateText(ctx context.Context, operation, system, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":   c.genModel,
		"prompt":  prompt,
		"stream":  false,
		"options": map[string]any{"temperature": 0},
	}
	if system != "" {
		reqBody["system"] = system
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, operation, "/api/generate", reqBody, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload any, out any) error {
	do := func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, do, classifyOllamaError)
	} else {
		err = do(ctx)
	}
	return wrapTemporaryIfNeeded("ollama "+operation, err)
}

func decodeStructured(schema map[string]any, raw string, out any) error {
	raw = extractJSONObject(raw)
	if err := validateStructured(schema, raw); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
