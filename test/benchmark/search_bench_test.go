package benchmark

import (
	"context"
	"testing"

	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/labs"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
)

const boolQuery = `{
  "query": {
    "bool": {
      "must": [
        {"match": {"review_text": {"query": "comfortable durable", "operator": "and"}}},
        {"multi_match": {"query": "wireless", "fields": ["product_name^2", "product_description"]}}
      ],
      "filter": [{"range": {"review_rating": {"gte": 4}}}]
    }
  }
}`

func BenchmarkParse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = jsonv.ParseString(boolQuery)
	}
}

func BenchmarkInspect(b *testing.B) {
	q := jsonv.MustParse(boolQuery)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = querydsl.Inspect(q, "")
	}
}

func BenchmarkSwapField(b *testing.B) {
	q := jsonv.MustParse(boolQuery)
	value := jsonv.String("headphones")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = querydsl.SwapField(q, "review_text", "review_title", value, querydsl.Bool)
	}
}

func BenchmarkRetarget(b *testing.B) {
	registry, err := labs.NewRegistry()
	if err != nil {
		b.Fatal(err)
	}
	lab, _ := registry.Get("bool")
	q := jsonv.MustParse(boolQuery)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = labs.Retarget(lab, q, models.ProductUsers)
	}
}

func BenchmarkCatalogSearch(b *testing.B) {
	registry, err := labs.NewRegistry()
	if err != nil {
		b.Fatal(err)
	}
	catalog, err := keyword.NewCatalog()
	if err != nil {
		b.Fatal(err)
	}
	defer catalog.Close()
	if err := catalog.IndexAll(registry.List()); err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	opts := &keyword.SearchOptions{Fuzzy: true, TitleBoost: 2}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = catalog.Search(ctx, "phrase slop", 10, opts)
	}
}

func BenchmarkLevenshteinDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = keyword.LevenshteinDistance("product_descripton", "product_description")
	}
}
