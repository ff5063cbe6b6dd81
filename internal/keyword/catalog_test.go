package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/querylab/internal/models"
)

func phraseLab() *models.LabConfig {
	return &models.LabConfig{
		ID:          "match_phrase",
		DisplayName: "Match Phrase Query",
		QueryType:   "match_phrase_query",
		Examples: []models.QueryExample{
			{
				ID:          "example_1",
				Title:       "Exact phrase in descriptions",
				Description: "Find products whose description contains noise cancelling.",
				TryThis:     []string{"Swap the words"},
				Tooltips:    map[string]string{"match_phrase": "Matches terms in order"},
			},
			{
				ID:          "example_2",
				Title:       "Phrase with slop",
				Description: "Allow gaps between words.",
				Tooltips:    map[string]string{"slop": "Maximum positions between terms"},
			},
		},
	}
}

func rangeLab() *models.LabConfig {
	return &models.LabConfig{
		ID:          "range",
		DisplayName: "Range Query",
		QueryType:   "range_query",
		Examples: []models.QueryExample{
			{
				ID:          "example_1",
				Title:       "Ratings above four",
				Description: "Find reviews rated four or higher.",
				Tooltips:    map[string]string{"gte": "Greater than or equal"},
			},
		},
	}
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if err := c.IndexAll([]*models.LabConfig{phraseLab(), rangeLab()}); err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	return c
}

func docCount(t *testing.T, c *Catalog) uint64 {
	t.Helper()
	n, err := c.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	return n
}

func TestCatalog_SearchFindsTooltip(t *testing.T) {
	c := newTestCatalog(t)
	if n := docCount(t, c); n != 3 {
		t.Fatalf("DocCount = %d, want 3", n)
	}

	hits, err := c.Search(context.Background(), "slop", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	got := hits[0]
	if got.LabID != "match_phrase" || got.ExampleID != "example_2" || got.Title != "Phrase with slop" {
		t.Errorf("hit = %+v", got)
	}
	if got.Score <= 0 {
		t.Errorf("score = %v, want > 0", got.Score)
	}
}

func TestCatalog_SearchLabName(t *testing.T) {
	c := newTestCatalog(t)
	hits, err := c.Search(context.Background(), "range", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].LabID != "range" {
		t.Errorf("hits = %v, want the range example", hits)
	}
}

func TestCatalog_SearchBlank(t *testing.T) {
	c := newTestCatalog(t)
	hits, err := c.Search(context.Background(), "   ", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("blank search returned %d hits", len(hits))
	}
}

func TestCatalog_SearchOptions(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	hits, err := c.Search(ctx, "phrase", 10, &SearchOptions{LabID: "range"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("lab filter: got %d hits, want 0", len(hits))
	}

	hits, err = c.Search(ctx, "slup", 10, &SearchOptions{Fuzzy: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].ExampleID != "example_2" {
		t.Errorf("fuzzy: hits = %v, want example_2 first", hits)
	}

	hits, err = c.Search(ctx, "phrase", 10, &SearchOptions{TitleBoost: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("title boost: got %d hits, want 2", len(hits))
	}

	hits, err = c.Search(ctx, "phrase", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("limit: got %d hits, want 1", len(hits))
	}
}

func TestCatalog_ReindexAndRemove(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	lab := phraseLab()
	lab.Examples = lab.Examples[:1]
	if err := c.IndexLab(lab); err != nil {
		t.Fatalf("IndexLab: %v", err)
	}
	if n := docCount(t, c); n != 2 {
		t.Errorf("after reindex DocCount = %d, want 2", n)
	}
	hits, _ := c.Search(ctx, "slop", 10, nil)
	if len(hits) != 0 {
		t.Errorf("dropped example still found: %v", hits)
	}

	if err := c.RemoveLab("match_phrase"); err != nil {
		t.Fatalf("RemoveLab: %v", err)
	}
	if n := docCount(t, c); n != 1 {
		t.Errorf("after remove DocCount = %d, want 1", n)
	}
	if err := c.RemoveLab("match_phrase"); err != nil {
		t.Errorf("removing twice: %v", err)
	}
}

func TestCatalog_DidYouMean(t *testing.T) {
	c := newTestCatalog(t)

	got, ok := c.DidYouMean("phrse slop")
	if !ok || got != "phrase slop" {
		t.Errorf("DidYouMean = %q, %v; want %q, true", got, ok, "phrase slop")
	}
	if _, ok := c.DidYouMean("phrase"); ok {
		t.Error("known terms should not be corrected")
	}

	if err := c.RemoveLab("match_phrase"); err != nil {
		t.Fatalf("RemoveLab: %v", err)
	}
	if _, ok := c.DidYouMean("phrse"); ok {
		t.Error("suggestions should follow removed labs")
	}
}

func TestCatalog_TermDictionary(t *testing.T) {
	c := newTestCatalog(t)
	var _ TermDictionary = c

	ok, err := c.ContainsTerm("Slop")
	if err != nil || !ok {
		t.Errorf("ContainsTerm(Slop) = %v, %v", ok, err)
	}
	ok, _ = c.ContainsTerm("elasticsearch")
	if ok {
		t.Error("ContainsTerm(elasticsearch) should be false")
	}
	terms, err := c.GetAllTerms()
	if err != nil || len(terms) == 0 {
		t.Fatalf("GetAllTerms = %d terms, %v", len(terms), err)
	}
}
