package commitmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()
	got := Fingerprint(Candidate{Kind: "feat", Message: "Add parser", Body: "Implements tokenizer"})
	assert.Equal(t, "Message: Add parser\n\rBody: Implements tokenizer", got)
	assert.Equal(t, "Message: \n\rBody: ", Fingerprint(Candidate{}))
}

func TestCandidateSet_dedup(t *testing.T) {
	t.Parallel()
	a := Candidate{Kind: "feat", Message: "Add x", Body: "b"}
	b := Candidate{Kind: "fix", Message: "Fix y", Body: ""}
	s := NewCandidateSet(a, b)
	assert.Equal(t, 2, s.Len())

	s.Add(a)
	assert.Equal(t, 2, s.Len(), "re-adding a duplicate must not change cardinality")

	aOtherKind := Candidate{Kind: "chore", Message: "Add x", Body: "b"}
	s.Add(aOtherKind)
	assert.Equal(t, 2, s.Len())
	got, ok := s.Get(Fingerprint(a))
	assert.True(t, ok)
	assert.Equal(t, aOtherKind, got, "last write wins for the stored value")
	assert.Equal(t, []string{Fingerprint(a), Fingerprint(b)}, s.Keys(), "position of first insertion kept")
}

func TestCandidateSet_sameMessageDifferentBody(t *testing.T) {
	t.Parallel()
	s := NewCandidateSet(
		Candidate{Message: "Add x", Body: "one"},
		Candidate{Message: "Add x", Body: "two"},
	)
	assert.Equal(t, 2, s.Len())
}

func TestCandidateSet_nilAndZero(t *testing.T) {
	t.Parallel()
	var nilSet *CandidateSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Nil(t, nilSet.Keys())
	_, ok := nilSet.Get("x")
	assert.False(t, ok)

	var zero CandidateSet
	zero.Add(Candidate{Message: "m"})
	assert.Equal(t, 1, zero.Len())
}

func TestCandidateSet_KeysIsCopy(t *testing.T) {
	t.Parallel()
	s := NewCandidateSet(Candidate{Message: "a"})
	keys := s.Keys()
	keys[0] = "mutated"
	_, ok := s.Get(Fingerprint(Candidate{Message: "a"}))
	assert.True(t, ok)
	assert.Equal(t, Fingerprint(Candidate{Message: "a"}), s.Keys()[0])
}
