package models

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFieldList_YAML(t *testing.T) {
	var lab LabConfig
	src := `
id: mixed
search_fields:
  products: product_name
  product_reviews: [review_title, review_text]
`
	if err := yaml.Unmarshal([]byte(src), &lab); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := lab.SearchFields[Products]; len(got) != 1 || got.First() != "product_name" {
		t.Errorf("products fields = %v", got)
	}
	if got := lab.SearchFields[ProductReviews]; len(got) != 2 || got[1] != "review_text" {
		t.Errorf("review fields = %v", got)
	}
	if got := lab.SearchFields[ProductUsers].First(); got != "" {
		t.Errorf("missing dataset First() = %q", got)
	}
}

func TestFieldList_JSON(t *testing.T) {
	var f FieldList
	if err := json.Unmarshal([]byte(`"interests"`), &f); err != nil || f.First() != "interests" {
		t.Errorf("string form: %v %v", f, err)
	}
	if err := json.Unmarshal([]byte(`["a","b"]`), &f); err != nil || len(f) != 2 {
		t.Errorf("list form: %v %v", f, err)
	}
	if err := json.Unmarshal([]byte(`3`), &f); err == nil {
		t.Error("expected error for number")
	}
}

func TestTemplate(t *testing.T) {
	var ex struct {
		Shared   Template `yaml:"shared"`
		Separate Template `yaml:"separate"`
	}
	src := `
shared: |
  {"query":{"match":{"a":"x"}}}
separate:
  products: FROM products
  product_users: FROM product_users
`
	if err := yaml.Unmarshal([]byte(src), &ex); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ex.Shared.Shared() {
		t.Error("expected shared template")
	}
	for _, d := range Datasets {
		if s, ok := ex.Shared.For(d); !ok || s == "" {
			t.Errorf("shared template missing for %s", d)
		}
	}
	if s, ok := ex.Separate.For(ProductUsers); !ok || s != "FROM product_users" {
		t.Errorf("separate.For(users) = %q, %v", s, ok)
	}
	if _, ok := ex.Separate.For(ProductReviews); ok {
		t.Error("expected no template for reviews")
	}

	data, err := json.Marshal(ex.Separate)
	if err != nil {
		t.Fatal(err)
	}
	var back Template
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Shared() || back.PerDataset[Products] != "FROM products" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestLabConfig_SummaryAndExample(t *testing.T) {
	lab := &LabConfig{
		ID:           "match",
		SearchFields: map[Dataset]FieldList{ProductUsers: {"interests"}, Products: {"product_name"}},
		Examples:     []QueryExample{{ID: "example_1"}, {ID: "example_2"}},
		Challenge:    &Challenge{},
	}
	s := lab.Summary()
	if s.Examples != 2 || !s.HasChallenge {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Datasets) != 2 || s.Datasets[0] != Products {
		t.Errorf("datasets = %v", s.Datasets)
	}
	if ex, ok := lab.Example("example_2"); !ok || ex.ID != "example_2" {
		t.Error("expected example_2")
	}
	if _, ok := lab.Example("nope"); ok {
		t.Error("unexpected example")
	}
}

func TestParseDataset(t *testing.T) {
	if _, err := ParseDataset("products"); err != nil {
		t.Error(err)
	}
	if _, err := ParseDataset("orders"); err == nil {
		t.Error("expected error")
	}
}
