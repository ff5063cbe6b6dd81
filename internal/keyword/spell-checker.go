package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a spelling suggestion for one term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// SpellCheckResult is the outcome of checking a query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion
	HasCorrections  bool
	MisspelledTerms []string
}

// SpellChecker suggests replacements for terms missing from a dictionary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu         sync.RWMutex
	terms      []string
	termSet    map[string]struct{}
	cacheValid bool
	gen        uint64 // bumped by Invalidate
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// withMinFrequency ignores dictionary terms found in fewer than f documents.
func withMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached terms; the next check reloads them.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cacheValid = false
	s.mu.Unlock()
}

// RefreshCache reloads the terms from the dictionary. Terms read while an
// Invalidate happens are used but not trusted, so the next check reloads.
func (s *SpellChecker) RefreshCache() error {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}

	s.mu.Lock()
	s.terms = terms
	s.termSet = set
	s.cacheValid = s.gen == gen
	s.mu.Unlock()
	return nil
}

func (s *SpellChecker) ensureCache() error {
	s.mu.RLock()
	valid := s.cacheValid
	s.mu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

// Check looks up every term of query and suggests replacements for the
// unknown ones. The corrected query uses the best suggestion of each term.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	terms := tokenizeQuery(query)
	result := &SpellCheckResult{
		OriginalQuery:   query,
		Suggestions:     make([]Suggestion, 0),
		MisspelledTerms: make([]string, 0),
	}
	corrected := make([]string, 0, len(terms))
	for _, term := range terms {
		if !s.IsMisspelled(term) {
			corrected = append(corrected, term)
			continue
		}
		suggestions := s.Suggest(term)
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}
	result.CorrectedQuery = strings.Join(corrected, " ")
	return result, nil
}

// Suggest returns dictionary terms within the maximum edit distance of term,
// closest and most frequent first.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()

	lower := strings.ToLower(term)
	suggestions := make([]Suggestion, 0)
	for _, candidate := range ClosestTerms(lower, terms, s.maxDistance) {
		freq, err := s.dictionary.GetTermFrequency(candidate)
		if err != nil || freq < s.minFreq {
			continue
		}
		distance := LevenshteinDistance(lower, candidate)
		suggestions = append(suggestions, Suggestion{
			Term:      candidate,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// IsMisspelled reports whether term is missing from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	if err := s.ensureCache(); err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.termSet[strings.ToLower(term)]
	return !ok
}

// GetSuggestedQuery returns the corrected query, or query itself when
// nothing needed correcting.
func (s *SpellChecker) GetSuggestedQuery(query string) string {
	result, err := s.Check(query)
	if err != nil || !result.HasCorrections {
		return query
	}
	return result.CorrectedQuery
}
