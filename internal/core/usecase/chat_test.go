package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

type answererFake struct {
	pc  domain.PipelineContext
	err error
}

func (f *answererFake) Run(context.Context, string) (domain.PipelineContext, error) {
	return f.pc, f.err
}

func fixedChat(answerer *answererFake, recorders ...ports.InteractionRecorder) *ChatService {
	svc := NewChatService(answerer, recorders...)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	svc.newID = func() string { return "reply-1" }
	return svc
}

func answeredContext(answer string) domain.PipelineContext {
	pc, _ := domain.NewPipelineContext("q").Apply(domain.StageOutput{Answer: &answer})
	return pc
}

func TestChatReplyReturnsAnswer(t *testing.T) {
	svc := fixedChat(&answererFake{pc: answeredContext("Two papers were found.")})
	reply := svc.Reply(context.Background(), domain.ChatMessage{Role: "user", Content: "q"})

	want := domain.ChatReply{Role: "assistant", Content: "Two papers were found.", ID: "reply-1", CreatedAt: "2024-03-05-14:07:09"}
	if reply != want {
		t.Fatalf("Reply() = %+v, want %+v", reply, want)
	}
}

func TestChatReplyConvertsEveryFaultToApology(t *testing.T) {
	faults := []error{
		domain.WrapError(domain.ErrClassification, "route", errors.New("bad label")),
		domain.WrapError(domain.ErrRetrieval, "validate query", errors.New("unknown label")),
		domain.WrapError(domain.ErrGeneration, "format response", errors.New("timeout")),
		errors.New("unexpected"),
	}
	for _, fault := range faults {
		recorder := &recorderFake{}
		svc := fixedChat(&answererFake{err: fault}, recorder)
		reply := svc.Reply(context.Background(), domain.ChatMessage{Role: "user", Content: "q"})
		if reply.Content != ApologyMessage || reply.Role != "assistant" || reply.ID == "" {
			t.Fatalf("fault %v: unexpected reply %+v", fault, reply)
		}
		if len(recorder.recorded) != 1 || !recorder.recorded[0].Faulted {
			t.Fatalf("fault %v: expected faulted interaction record, got %+v", fault, recorder.recorded)
		}
	}
}

func TestChatReplyIgnoresRecorderFailure(t *testing.T) {
	recorder := &recorderFake{err: errors.New("db down")}
	svc := fixedChat(&answererFake{pc: answeredContext("ok")}, recorder)
	reply := svc.Reply(context.Background(), domain.ChatMessage{Role: "user", Content: "q"})
	if reply.Content != "ok" {
		t.Fatalf("recorder failure must not change the reply, got %q", reply.Content)
	}
	if recorder.recorded[0].FaultKind != "" {
		t.Fatalf("unexpected fault kind %q", recorder.recorded[0].FaultKind)
	}
}
