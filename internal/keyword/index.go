// Package keyword indexes lab examples for full-text lookup and suggests
// spellings and field names from what is indexed.
package keyword

// SearchOptions tunes catalog search. Nil means use defaults.
type SearchOptions struct {
	// LabID restricts hits to one lab.
	LabID string
	// TitleBoost multiplies the score of matches in example titles. Values
	// <= 1 disable the extra title clause.
	TitleBoost float64
	// Fuzzy matches terms within Fuzziness edits (1 or 2, default 1).
	Fuzzy     bool
	Fuzziness int
}

// CatalogHit is a single example matched by a catalog search.
type CatalogHit struct {
	LabID     string  `json:"lab_id"`
	ExampleID string  `json:"example_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// TermDictionary provides access to indexed terms for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of documents containing term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists in the index.
	ContainsTerm(term string) (bool, error)
}
