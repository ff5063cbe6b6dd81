package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/querylab/internal/models"
)

const defaultLimit = 10

// textFields are the analyzed fields of an example document.
var textFields = []string{"title", "description", "tips", "lab_name"}

// exampleDoc is what the catalog indexes for one lab example.
type exampleDoc struct {
	LabID       string `json:"lab_id"`
	ExampleID   string `json:"example_id"`
	LabName     string `json:"lab_name"`
	QueryType   string `json:"query_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tips        string `json:"tips"`
}

// Catalog is an in-memory full-text index over lab examples.
type Catalog struct {
	index   bleve.Index
	speller *SpellChecker

	mu   sync.Mutex
	docs map[string][]string // lab id -> document ids
}

// NewCatalog creates an empty catalog.
func NewCatalog() (*Catalog, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so field names
	// like "review_text" and words like "slop" match as written.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	for _, f := range textFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("lab_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("example_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("query_type", keywordFieldMapping)
	im.AddDocumentMapping("example", docMapping)
	im.DefaultType = "example"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	c := &Catalog{index: index, docs: make(map[string][]string)}
	c.speller = NewSpellChecker(c, WithMaxDistance(2), WithMaxSuggestions(3))
	return c, nil
}

func docID(labID, exampleID string) string {
	return labID + "/" + exampleID
}

func newExampleDoc(lab *models.LabConfig, ex *models.QueryExample) *exampleDoc {
	tips := make([]string, 0, len(ex.TryThis)+2*len(ex.Tooltips))
	tips = append(tips, ex.TryThis...)
	keys := make([]string, 0, len(ex.Tooltips))
	for k := range ex.Tooltips {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tips = append(tips, k, ex.Tooltips[k])
	}
	return &exampleDoc{
		LabID:       lab.ID,
		ExampleID:   ex.ID,
		LabName:     lab.DisplayName,
		QueryType:   lab.QueryType,
		Title:       ex.Title,
		Description: ex.Description,
		Tips:        strings.Join(tips, "\n"),
	}
}

// IndexLab replaces every document of lab with its current examples.
func (c *Catalog) IndexLab(lab *models.LabConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := c.index.NewBatch()
	for _, id := range c.docs[lab.ID] {
		batch.Delete(id)
	}
	ids := make([]string, 0, len(lab.Examples))
	for i := range lab.Examples {
		ex := &lab.Examples[i]
		id := docID(lab.ID, ex.ID)
		if err := batch.Index(id, newExampleDoc(lab, ex)); err != nil {
			return fmt.Errorf("failed to index %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index lab %s: %w", lab.ID, err)
	}
	c.docs[lab.ID] = ids
	c.speller.Invalidate()
	return nil
}

// IndexAll indexes every lab in labs.
func (c *Catalog) IndexAll(labs []*models.LabConfig) error {
	for _, lab := range labs {
		if err := c.IndexLab(lab); err != nil {
			return err
		}
	}
	return nil
}

// RemoveLab deletes every document of the lab with the given id.
func (c *Catalog) RemoveLab(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, ok := c.docs[id]
	if !ok {
		return nil
	}
	batch := c.index.NewBatch()
	for _, d := range ids {
		batch.Delete(d)
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to remove lab %s: %w", id, err)
	}
	delete(c.docs, id)
	c.speller.Invalidate()
	return nil
}

// Search returns up to limit examples matching text, best first. Blank text
// matches nothing.
func (c *Catalog) Search(ctx context.Context, text string, limit int, opts *SearchOptions) ([]*CatalogHit, error) {
	if strings.TrimSpace(text) == "" {
		return []*CatalogHit{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	req := bleve.NewSearchRequest(buildQuery(text, opts))
	req.Size = limit
	req.Fields = []string{"lab_id", "example_id", "title"}
	results, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	out := make([]*CatalogHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out = append(out, &CatalogHit{
			LabID:     fieldString(hit.Fields, "lab_id"),
			ExampleID: fieldString(hit.Fields, "example_id"),
			Title:     fieldString(hit.Fields, "title"),
			Score:     hit.Score,
		})
	}
	return out, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func buildQuery(text string, opts *SearchOptions) blevequery.Query {
	var q blevequery.Query
	if opts.Fuzzy {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
		q = buildFuzzyQuery(text, fuzziness, "")
	} else {
		q = bleve.NewMatchQuery(text)
	}
	if opts.TitleBoost > 1 {
		tq := bleve.NewMatchQuery(text)
		tq.SetField("title")
		tq.SetBoost(opts.TitleBoost)
		q = bleve.NewDisjunctionQuery(q, tq)
	}
	if opts.LabID != "" {
		lq := bleve.NewTermQuery(opts.LabID)
		lq.SetField("lab_id")
		q = bleve.NewConjunctionQuery(q, lq)
	}
	return q
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query.
// If field is empty, searches all fields; otherwise restricts to the specified field.
func buildFuzzyQuery(text string, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(text)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(text)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DidYouMean returns text with misspelled terms replaced by indexed terms,
// and whether anything was replaced.
func (c *Catalog) DidYouMean(text string) (string, bool) {
	suggested := c.speller.GetSuggestedQuery(text)
	return suggested, suggested != text
}

// DocCount returns the number of indexed examples.
func (c *Catalog) DocCount() (uint64, error) {
	return c.index.DocCount()
}

// Close closes the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

// termCounts sums the document frequency of every term across the text fields.
func (c *Catalog) termCounts() (map[string]int, error) {
	counts := make(map[string]int)
	for _, f := range textFields {
		dict, err := c.index.FieldDict(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read terms of %s: %w", f, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			counts[entry.Term] += int(entry.Count)
		}
		_ = dict.Close()
	}
	return counts, nil
}

// GetAllTerms returns all unique analyzed terms in the catalog.
func (c *Catalog) GetAllTerms() ([]string, error) {
	counts, err := c.termCounts()
	if err != nil {
		return nil, err
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms, nil
}

// GetTermFrequency returns the document frequency of term.
func (c *Catalog) GetTermFrequency(term string) (int, error) {
	counts, err := c.termCounts()
	if err != nil {
		return 0, err
	}
	return counts[strings.ToLower(term)], nil
}

// ContainsTerm checks if a term exists in the catalog.
func (c *Catalog) ContainsTerm(term string) (bool, error) {
	freq, err := c.GetTermFrequency(term)
	if err != nil {
		return false, err
	}
	return freq > 0, nil
}
