package commitmsg

// Candidate is one AI-proposed option. Kind is the commit type the model
// suggested; only Message and Body are used to fill the draft.
type Candidate struct {
	Kind    string `json:"type"`
	Message string `json:"message"`
	Body    string `json:"body"`
}

// Fingerprint is the display label and deduplication key of c.
func Fingerprint(c Candidate) string {
	return "Message: " + c.Message + "\n\rBody: " + c.Body
}

// CandidateSet maps fingerprints to candidates. Candidates with the same
// message and body collapse into one entry: the last one added wins, at the
// position where the fingerprint was first seen.
type CandidateSet struct {
	byKey map[string]Candidate
	keys  []string
}

// NewCandidateSet returns a set holding cs in order.
func NewCandidateSet(cs ...Candidate) *CandidateSet {
	s := &CandidateSet{byKey: make(map[string]Candidate, len(cs))}
	for _, c := range cs {
		s.Add(c)
	}
	return s
}

// Add inserts c under its fingerprint.
func (s *CandidateSet) Add(c Candidate) {
	if s.byKey == nil {
		s.byKey = make(map[string]Candidate)
	}
	key := Fingerprint(c)
	if _, ok := s.byKey[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.byKey[key] = c
}

// Len returns the number of distinct fingerprints.
func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the fingerprints in first-seen order.
func (s *CandidateSet) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Get returns the candidate stored under fingerprint key.
func (s *CandidateSet) Get(key string) (Candidate, bool) {
	if s == nil {
		return Candidate{}, false
	}
	c, ok := s.byKey[key]
	return c, ok
}
