package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AI endpoint returned HTTP 500: overloaded", (&APIError{StatusCode: 500, Body: "overloaded"}).Error())
	assert.Equal(t, "AI endpoint returned HTTP 403", (&APIError{StatusCode: 403}).Error())
}

func TestParseError_unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("unexpected end of JSON input")
	err := error(&ParseError{Reason: "decode candidates", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "parse AI response: decode candidates: unexpected end of JSON input", err.Error())

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "decode candidates", pe.Reason)
	assert.Equal(t, "parse AI response: no array found", (&ParseError{Reason: "no array found"}).Error())
}

func TestFunc_Complete(t *testing.T) {
	t.Parallel()
	var gotSystem, gotUser string
	b := Func(func(_ context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "[]", nil
	})
	out, err := b.Complete(context.Background(), "persona", "diff")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, "persona", gotSystem)
	assert.Equal(t, "diff", gotUser)
}
