package labs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return r
}

func TestNewRegistry_LoadsBuiltinLabs(t *testing.T) {
	r := newRegistry(t)
	want := []string{"bool", "esql_rest", "fuzzy", "match", "match_phrase", "multi_match", "prefix", "query_string", "range", "term", "terms"}
	var got []string
	for _, lab := range r.List() {
		got = append(got, lab.ID)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, len(want), r.Len())
}

func TestBuiltinExamples_ParseAndClassify(t *testing.T) {
	r := newRegistry(t)
	for _, lab := range r.List() {
		for _, ex := range lab.Examples {
			if lab.IsESQL() {
				for _, d := range models.Datasets {
					if text, ok := ex.Template.For(d); ok {
						assert.True(t, strings.HasPrefix(strings.TrimSpace(text), "FROM "), "%s/%s/%s", lab.ID, ex.ID, d)
					}
				}
				continue
			}
			text, ok := ex.Template.For(ex.Index)
			require.True(t, ok, "%s/%s", lab.ID, ex.ID)
			q, err := jsonv.ParseString(text)
			require.NoError(t, err, "%s/%s", lab.ID, ex.ID)
			_, ok = querydsl.Classify(q)
			assert.True(t, ok, "%s/%s", lab.ID, ex.ID)
		}
	}
}

func TestRetarget_MatchToProducts(t *testing.T) {
	lab, ok := newRegistry(t).Get("match")
	require.True(t, ok)

	q := jsonv.MustParse(`{"query":{"match":{"review_text":{"query":"comfortable durable","operator":"and"}}}}`)
	res := Retarget(lab, q, models.Products)
	require.True(t, res.Changed)
	assert.Equal(t, querydsl.Match, res.Type)
	assert.Equal(t, "review_text", res.OldField)
	assert.Equal(t, "product_name", res.NewField)
	assert.Equal(t,
		`{"query":{"match":{"product_name":{"query":"wireless","operator":"and"}}}}`,
		string(jsonv.Marshal(res.Query)))
	// input untouched
	assert.Equal(t,
		`{"query":{"match":{"review_text":{"query":"comfortable durable","operator":"and"}}}}`,
		string(jsonv.Marshal(q)))
}

func TestRetarget_LeavesUnknownFieldsAlone(t *testing.T) {
	lab, _ := newRegistry(t).Get("term")
	q := jsonv.MustParse(`{"query":{"term":{"product_id":{"value":"12345"}}}}`)
	res := Retarget(lab, q, models.ProductUsers)
	assert.False(t, res.Changed)
	assert.True(t, jsonv.Equal(q, res.Query))

	q = jsonv.MustParse(`{"query":{"match":{"sku":"x"}}}`)
	res = Retarget(lab, q, models.ProductUsers)
	assert.False(t, res.Changed)
	assert.Equal(t, "sku", res.OldField)
}

func TestRetarget_SuggestsMisspelledField(t *testing.T) {
	lab, _ := newRegistry(t).Get("match")
	q := jsonv.MustParse(`{"query":{"match":{"review_txt":"comfortable"}}}`)
	res := Retarget(lab, q, models.Products)
	assert.False(t, res.Changed)
	assert.Equal(t, []string{"review_text"}, res.Suggestions)

	assert.Nil(t, SuggestFields(lab, "review_text"))
	assert.Empty(t, SuggestFields(lab, "sku"))
}

func TestRetarget_Bool(t *testing.T) {
	lab, _ := newRegistry(t).Get("bool")
	q := jsonv.MustParse(`{"query":{"bool":{"must":[{"match":{"review_text":"comfortable"}}],"filter":[{"range":{"review_rating":{"gte":4}}}]}}}`)
	res := Retarget(lab, q, models.ProductUsers)
	require.True(t, res.Changed)
	assert.Equal(t,
		`{"query":{"bool":{"must":[{"match":{"interests":"Electronics"}}],"filter":[{"range":{"review_rating":{"gte":4}}}]}}}`,
		string(jsonv.Marshal(res.Query)))
}

func TestRetarget_SameFieldUnchanged(t *testing.T) {
	lab, _ := newRegistry(t).Get("match")
	q := jsonv.MustParse(`{"query":{"match":{"interests":"Books"}}}`)
	res := Retarget(lab, q, models.ProductUsers)
	assert.False(t, res.Changed)
}

func TestRetargetText(t *testing.T) {
	lab, _ := newRegistry(t).Get("multi_match")

	text := `{"query":{"multi_match":{"query":"wireless","fields":["product_name^2","product_description"]}}}`
	out, res, err := RetargetText(lab, text, models.ProductReviews)
	require.NoError(t, err)
	require.True(t, res.Changed)
	assert.Contains(t, out, `"review_title^2"`)
	assert.Contains(t, out, `"query": "comfortable"`)

	unchanged := `{ "query": { "match_all": {} } }`
	out, res, err = RetargetText(lab, unchanged, models.ProductReviews)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, unchanged, out)

	_, _, err = RetargetText(lab, `{"query":`, models.Products)
	assert.ErrorIs(t, err, jsonv.ErrInvalidJSON)
}

func TestExampleQuery(t *testing.T) {
	r := newRegistry(t)

	lab, _ := r.Get("match")
	ex, ok := lab.Example("example_2")
	require.True(t, ok)

	own, err := ExampleQuery(lab, ex, "")
	require.NoError(t, err)
	assert.Equal(t, ex.Template.Text, own)

	users, err := ExampleQuery(lab, ex, models.ProductUsers)
	require.NoError(t, err)
	field, ok := querydsl.ExtractField(jsonv.MustParse(users), "")
	require.True(t, ok)
	assert.Equal(t, "interests", field)

	esql, _ := r.Get("esql_rest")
	ex = &esql.Examples[0]
	text, err := ExampleQuery(esql, ex, models.ProductUsers)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "FROM product_users"))
}

func TestKnownFields(t *testing.T) {
	lab, _ := newRegistry(t).Get("match")
	assert.Equal(t, []string{"interests", "product_description", "product_name", "review_text", "review_title"}, KnownFields(lab))
}

const customLab = `
id: match
display_name: Custom Match
search_fields:
  products: product_brand
sample_queries:
  products: Acme
examples:
  - id: only
    title: Only example
    index: products
    template: '{"query":{"match":{"product_brand":"Acme"}}}'
`

func TestRegistry_LoadReloadRemove(t *testing.T) {
	r := newRegistry(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "match.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customLab), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("id: [unclosed"), 0644))

	n, err := r.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lab, _ := r.Get("match")
	assert.Equal(t, "Custom Match", lab.DisplayName)
	assert.Equal(t, path, lab.Source)
	id, ok := r.SourceID(path)
	assert.True(t, ok)
	assert.Equal(t, "match", id)

	// Renaming the id inside the file drops the old id and restores the built-in lab.
	renamed := strings.Replace(customLab, "id: match", "id: brand", 1)
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0644))
	_, err = r.Reload(path)
	require.NoError(t, err)
	lab, _ = r.Get("match")
	assert.Equal(t, "Match Query", lab.DisplayName)
	_, ok = r.Get("brand")
	assert.True(t, ok)

	id, ok = r.Remove(path)
	assert.True(t, ok)
	assert.Equal(t, "brand", id)
	_, ok = r.Get("brand")
	assert.False(t, ok)

	_, ok = r.Remove(path)
	assert.False(t, ok)
	_, ok = r.SourceID(path)
	assert.False(t, ok)
}

func TestRegistry_LoadMissingDir(t *testing.T) {
	n, err := newRegistry(t).Load(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestValidate(t *testing.T) {
	valid := func() *models.LabConfig {
		return &models.LabConfig{
			ID:            "x",
			QueryLanguage: models.QueryDSL,
			Examples: []models.QueryExample{
				{ID: "a", Index: models.Products, Template: models.Template{Text: "{}"}},
			},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*models.LabConfig)
		wantErr string
	}{
		{"valid", func(*models.LabConfig) {}, ""},
		{"missing id", func(l *models.LabConfig) { l.ID = "" }, "id is required"},
		{"bad language", func(l *models.LabConfig) { l.QueryLanguage = "sql" }, "query language"},
		{"bad search dataset", func(l *models.LabConfig) {
			l.SearchFields = map[models.Dataset]models.FieldList{"orders": {"a"}}
		}, "search_fields"},
		{"bad example dataset", func(l *models.LabConfig) { l.Examples[0].Index = "orders" }, "unknown dataset"},
		{"duplicate example", func(l *models.LabConfig) { l.Examples = append(l.Examples, l.Examples[0]) }, "duplicate"},
		{"empty template", func(l *models.LabConfig) { l.Examples[0].Template.Text = "  " }, "empty"},
		{"bad template dataset", func(l *models.LabConfig) {
			l.Examples[0].Template = models.Template{PerDataset: map[models.Dataset]string{"orders": "FROM orders"}}
		}, "template for unknown dataset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lab := valid()
			tt.mutate(lab)
			err := Validate(lab)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsLabFile(t *testing.T) {
	assert.True(t, IsLabFile("a.yaml"))
	assert.True(t, IsLabFile("/x/B.YML"))
	assert.False(t, IsLabFile("a.json"))
}
