// ------------------------------------------------------
// FuzzKit - Similarity Algorithms
// Library-backed ratio implementations
// ------------------------------------------------------

package fuzz

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Algorithm names accepted by Lookup.
const (
	AlgorithmRatio       = "ratio"
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmJaro        = "jaro"
	AlgorithmJaroWinkler = "jaro-winkler"
)

// Jaro-Winkler parameters — the commonly documented defaults.
const (
	jaroWinklerBoostThreshold = 0.7
	jaroWinklerPrefixSize     = 4
)

// Algorithm builds precomputed comparison state for a reference string.
// Implementations must be total over all string pairs: every Ratio call
// succeeds and returns a percentage in [0, 100].
type Algorithm interface {
	// Name returns the registry name of the algorithm.
	Name() string

	// Precompute builds opaque state bound to reference. The returned
	// state may hold views into reference and must be closed before the
	// reference is discarded.
	Precompute(reference string) State
}

// State is precomputed comparison state for one reference string.
type State interface {
	// Ratio returns the similarity percentage between the bound
	// reference and candidate: 100 identical, 0 maximally dissimilar.
	// Ratio must not mutate the state.
	Ratio(candidate string) float64

	// Close releases algorithm-specific resources. It is called at most
	// once, by CachedRatio.Close.
	Close()
}

// Lookup returns the named algorithm, or nil if the name is unknown.
func Lookup(name string) Algorithm {
	switch name {
	case AlgorithmRatio:
		return ratioAlgorithm{}
	case AlgorithmLevenshtein:
		return levenshteinAlgorithm{}
	case AlgorithmJaro:
		return jaroAlgorithm{}
	case AlgorithmJaroWinkler:
		return jaroWinklerAlgorithm{}
	}
	return nil
}

// Names returns the registry names of all available algorithms.
func Names() []string {
	return []string{AlgorithmRatio, AlgorithmLevenshtein, AlgorithmJaro, AlgorithmJaroWinkler}
}

// ratioAlgorithm is the default: an indel-based ratio where inserts and
// deletes cost 1 and substitutions cost 2, normalized over the combined
// length of both strings.
type ratioAlgorithm struct{}

func (ratioAlgorithm) Name() string { return AlgorithmRatio }

func (ratioAlgorithm) Precompute(reference string) State {
	return &ratioState{
		reference: reference,
		refLen:    len(reference),
	}
}

type ratioState struct {
	reference string
	refLen    int
}

func (s *ratioState) Ratio(candidate string) float64 {
	total := s.refLen + len(candidate)
	if total == 0 {
		return 100.0
	}
	// Substitution cost 2 makes this the indel distance: the minimum
	// number of single-character inserts and deletes between the two.
	distance := smetrics.WagnerFischer(s.reference, candidate, 1, 1, 2)
	return 100.0 * (1.0 - float64(distance)/float64(total))
}

func (s *ratioState) Close() {
	s.reference = ""
	s.refLen = 0
}

// levenshteinAlgorithm normalizes plain edit distance over the longer
// of the two strings, measured in runes.
type levenshteinAlgorithm struct{}

func (levenshteinAlgorithm) Name() string { return AlgorithmLevenshtein }

func (levenshteinAlgorithm) Precompute(reference string) State {
	return &levenshteinState{
		reference: reference,
		refLen:    utf8.RuneCountInString(reference),
	}
}

type levenshteinState struct {
	reference string
	refLen    int
}

func (s *levenshteinState) Ratio(candidate string) float64 {
	maxLen := s.refLen
	if candLen := utf8.RuneCountInString(candidate); candLen > maxLen {
		maxLen = candLen
	}
	if maxLen == 0 {
		return 100.0
	}
	distance := levenshtein.ComputeDistance(s.reference, candidate)
	return 100.0 * (1.0 - float64(distance)/float64(maxLen))
}

func (s *levenshteinState) Close() {
	s.reference = ""
	s.refLen = 0
}

// jaroAlgorithm scales the Jaro similarity to a percentage.
type jaroAlgorithm struct{}

func (jaroAlgorithm) Name() string { return AlgorithmJaro }

func (jaroAlgorithm) Precompute(reference string) State {
	return &jaroState{reference: reference}
}

type jaroState struct {
	reference string
}

func (s *jaroState) Ratio(candidate string) float64 {
	if s.reference == "" && candidate == "" {
		return 100.0
	}
	return 100.0 * smetrics.Jaro(s.reference, candidate)
}

func (s *jaroState) Close() {
	s.reference = ""
}

// jaroWinklerAlgorithm favors strings sharing a common prefix.
type jaroWinklerAlgorithm struct{}

func (jaroWinklerAlgorithm) Name() string { return AlgorithmJaroWinkler }

func (jaroWinklerAlgorithm) Precompute(reference string) State {
	return &jaroWinklerState{reference: reference}
}

type jaroWinklerState struct {
	reference string
}

func (s *jaroWinklerState) Ratio(candidate string) float64 {
	if s.reference == "" && candidate == "" {
		return 100.0
	}
	return 100.0 * smetrics.JaroWinkler(s.reference, candidate, jaroWinklerBoostThreshold, jaroWinklerPrefixSize)
}

func (s *jaroWinklerState) Close() {
	s.reference = ""
}

// levenshteinSimilarity is the normalized Levenshtein similarity
// percentage shared by the levenshtein algorithm and
// NormalizedDistance: 100 * (1 - distance/maxLen), with maxLen in
// runes. Two empty strings are 100% similar.
func levenshteinSimilarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 100.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 100.0 * (1.0 - float64(distance)/float64(maxLen))
}
