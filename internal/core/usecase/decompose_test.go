package usecase

import (
	"context"
	"testing"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func TestDecomposeAddressesItemsByPurpose(t *testing.T) {
	gen := &subQueryFake{items: []domain.SubQuery{
		{Text: "Return titles of the articles", Purpose: domain.PurposeStructured},
		{Text: "Find articles related to photosynthesis.", Purpose: domain.PurposeSimilarity},
	}}
	d := NewDecomposer(gen)

	got, err := d.Decompose(context.Background(), "Find the articles about the photosynthesis and return their titles")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if got.Similarity.Text != "Find articles related to photosynthesis." {
		t.Fatalf("unexpected similarity sub-query: %+v", got.Similarity)
	}
	if got.Structured.Text != "Return titles of the articles" {
		t.Fatalf("unexpected structured sub-query: %+v", got.Structured)
	}
	items := got.Items()
	if len(items) != 2 || items[0].Purpose != domain.PurposeSimilarity || items[1].Purpose != domain.PurposeStructured {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestDecomposeKeepsFirstItemPerPurpose(t *testing.T) {
	gen := &subQueryFake{items: []domain.SubQuery{
		{Text: "first similarity", Purpose: domain.PurposeSimilarity},
		{Text: "second similarity", Purpose: domain.PurposeSimilarity},
		{Text: "structured", Purpose: domain.PurposeStructured},
	}}
	got, err := NewDecomposer(gen).Decompose(context.Background(), "q")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if got.Similarity.Text != "first similarity" {
		t.Fatalf("expected first similarity item, got %q", got.Similarity.Text)
	}
}

func TestDecomposeFaults(t *testing.T) {
	cases := map[string][]domain.SubQuery{
		"single item": {
			{Text: "only one", Purpose: domain.PurposeSimilarity},
		},
		"missing structured": {
			{Text: "a", Purpose: domain.PurposeSimilarity},
			{Text: "b", Purpose: domain.PurposeSimilarity},
		},
		"empty text": {
			{Text: " ", Purpose: domain.PurposeSimilarity},
			{Text: "b", Purpose: domain.PurposeStructured},
		},
		"unknown purpose": {
			{Text: "a", Purpose: "keyword"},
			{Text: "b", Purpose: domain.PurposeStructured},
		},
	}

	for name, items := range cases {
		_, err := NewDecomposer(&subQueryFake{items: items}).Decompose(context.Background(), "q")
		if !domain.IsKind(err, domain.ErrClassification) {
			t.Fatalf("%s: expected classification fault, got %v", name, err)
		}
	}
}
