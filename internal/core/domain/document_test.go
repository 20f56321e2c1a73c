package domain

import (
	"encoding/json"
	"testing"
)

func TestRetrievedDocumentJSONFields(t *testing.T) {
	title := "Oxidative stress"
	year := 2019
	raw, err := json.Marshal(RetrievedDocument{
		Content:    "title: Oxidative stress",
		Identifier: "omid:br/0601",
		Title:      &title,
		Year:       &year,
		Embedding:  []float32{0.1, 0.2},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"content", "omid", "title", "venue", "publisher", "year", "month", "day"}
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields %v", fields)
	}
	for _, key := range want {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %q in %s", key, raw)
		}
	}
	for _, key := range []string{"score", "embedding", "Score", "Embedding"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("field %q must not be serialized: %s", key, raw)
		}
	}
}
