// Package similarity scores how alike two pieces of source text are using
// rolling-hash shingles.
package similarity

import "slices"

// hashBase is the polynomial base for the rolling hash. Arithmetic wraps
// modulo 2^64; hash hits are always verified against the shingle text.
const hashBase uint64 = 1_000_003

// Shingler compares strings using shingles of a fixed window size.
// A Shingler is immutable and safe for concurrent use.
type Shingler struct {
	window int
}

// NewShingler creates a Shingler for the given window size.
func NewShingler(window int) (*Shingler, error) {
	if err := ValidateWindow("window", window); err != nil {
		return nil, err
	}
	return &Shingler{window: window}, nil
}

// Window returns the shingle length.
func (s *Shingler) Window() int {
	return s.window
}

// Similarity returns the Dice coefficient of the shingle multisets of a and b.
func (s *Shingler) Similarity(a, b string) float64 {
	return score([]rune(a), []rune(b), s.window)
}

// Similarity compares a and b with the given window size.
// It is a convenience wrapper for one-off comparisons.
func Similarity(a, b string, window int) (float64, error) {
	s, err := NewShingler(window)
	if err != nil {
		return 0, err
	}
	return s.Similarity(a, b), nil
}

// score assumes window >= 1.
func score(a, b []rune, window int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	set := newShingleSet(a, window)
	total := set.size

	// Consume matching shingles from a's multiset as b's shingles roll by.
	matched := 0
	nb := 0
	forEachShingle(b, window, func(start, end int, h uint64) {
		nb++
		if set.take(b[start:end], h) {
			matched++
		}
	})

	return 2 * float64(matched) / float64(total+nb)
}

// bucket is one distinct shingle text and its remaining multiplicity.
type bucket struct {
	text  []rune
	count int
}

// shingleSet is a hash-indexed multiset of shingles.
type shingleSet struct {
	buckets map[uint64][]bucket
	size    int
}

func newShingleSet(s []rune, window int) *shingleSet {
	set := &shingleSet{buckets: make(map[uint64][]bucket)}
	forEachShingle(s, window, func(start, end int, h uint64) {
		set.add(s[start:end], h)
	})
	return set
}

func (m *shingleSet) add(text []rune, h uint64) {
	m.size++
	chain := m.buckets[h]
	for i := range chain {
		if slices.Equal(chain[i].text, text) {
			chain[i].count++
			return
		}
	}
	m.buckets[h] = append(chain, bucket{text: text, count: 1})
}

// take removes one occurrence of text, reporting whether one was present.
func (m *shingleSet) take(text []rune, h uint64) bool {
	chain := m.buckets[h]
	for i := range chain {
		if chain[i].count > 0 && slices.Equal(chain[i].text, text) {
			chain[i].count--
			return true
		}
	}
	return false
}

// forEachShingle calls fn for every shingle of s with its rolling hash.
// When s is shorter than window the whole string is a single shingle.
func forEachShingle(s []rune, window int, fn func(start, end int, h uint64)) {
	if len(s) == 0 {
		return
	}
	if len(s) < window {
		fn(0, len(s), hashRunes(s))
		return
	}

	// lead is hashBase^(window-1), the weight of the outgoing rune.
	lead := uint64(1)
	for i := 1; i < window; i++ {
		lead *= hashBase
	}

	h := hashRunes(s[:window])
	fn(0, window, h)
	for i := 1; i+window <= len(s); i++ {
		h -= uint64(s[i-1]) * lead
		h = h*hashBase + uint64(s[i+window-1])
		fn(i, i+window, h)
	}
}

func hashRunes(s []rune) uint64 {
	var h uint64
	for _, r := range s {
		h = h*hashBase + uint64(r)
	}
	return h
}
