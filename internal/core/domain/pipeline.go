package domain

import (
	"fmt"
	"strings"
	"time"
)

type field uint8

const (
	fieldStrategy field = 1 << iota
	fieldSubQueries
	fieldDocuments
	fieldPrompt
	fieldRawResult
	fieldAnswer
)

var fieldNames = map[field]string{
	fieldStrategy:   "strategy",
	fieldSubQueries: "sub_queries",
	fieldDocuments:  "documents",
	fieldPrompt:     "prompt",
	fieldRawResult:  "raw_result",
	fieldAnswer:     "answer",
}

// PipelineContext accumulates per-request state. Every field after Question
// is written at most once; Apply enforces it.
type PipelineContext struct {
	Question    string
	Strategy    Strategy
	SubQueries  *Decomposition
	Documents   []RetrievedDocument
	ArticleRefs []ArticleRef
	Prompt      *PromptSpec
	RawResult   *GraphResult
	Answer      string

	written field
}

func NewPipelineContext(question string) PipelineContext {
	return PipelineContext{Question: question}
}

// StageOutput carries the fields a single stage adds to the context.
type StageOutput struct {
	Strategy   *Strategy
	SubQueries *Decomposition
	// Documents and ArticleRefs are written together.
	Documents   *[]RetrievedDocument
	ArticleRefs []ArticleRef
	Prompt      *PromptSpec
	RawResult   *GraphResult
	Answer      *string
}

// Apply merges out into a copy of c.
func (c PipelineContext) Apply(out StageOutput) (PipelineContext, error) {
	next := c
	if out.Strategy != nil {
		if err := next.mark(fieldStrategy); err != nil {
			return c, err
		}
		next.Strategy = *out.Strategy
	}
	if out.SubQueries != nil {
		if err := next.mark(fieldSubQueries); err != nil {
			return c, err
		}
		sub := *out.SubQueries
		next.SubQueries = &sub
	}
	if out.Documents != nil {
		if err := next.mark(fieldDocuments); err != nil {
			return c, err
		}
		next.Documents = append([]RetrievedDocument{}, (*out.Documents)...)
		next.ArticleRefs = append([]ArticleRef{}, out.ArticleRefs...)
	}
	if out.Prompt != nil {
		if err := next.mark(fieldPrompt); err != nil {
			return c, err
		}
		prompt := *out.Prompt
		next.Prompt = &prompt
	}
	if out.RawResult != nil {
		if err := next.mark(fieldRawResult); err != nil {
			return c, err
		}
		result := *out.RawResult
		next.RawResult = &result
	}
	if out.Answer != nil {
		if err := next.mark(fieldAnswer); err != nil {
			return c, err
		}
		next.Answer = *out.Answer
	}
	return next, nil
}

func (c PipelineContext) Answered() bool {
	return c.written&fieldAnswer != 0
}

func (c *PipelineContext) mark(f field) error {
	if c.written&f != 0 {
		return WrapError(ErrInvariant, "pipeline context", fmt.Errorf("%s already written", fieldNames[f]))
	}
	c.written |= f
	return nil
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatReply struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

const ReplyTimestampLayout = "2006-01-02-15:04:05"

func NewChatReply(id, content string, at time.Time) ChatReply {
	return ChatReply{
		Role:      "assistant",
		Content:   strings.TrimSpace(content),
		ID:        id,
		CreatedAt: at.Format(ReplyTimestampLayout),
	}
}

// Interaction is the audit record written after each reply.
type Interaction struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Strategy   Strategy  `json:"strategy,omitempty"`
	Answer     string    `json:"answer"`
	Faulted    bool      `json:"faulted"`
	FaultKind  string    `json:"fault_kind,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
