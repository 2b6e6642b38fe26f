package resilience

import (
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransientNil(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestIsTransientWrapped(t *testing.T) {
	base := NewTransientError(eris.New("http 503"), 503)
	wrapped := fmt.Errorf("fetch roster: %w", base)
	assert.True(t, IsTransient(wrapped))
}

func TestPermanentBeatsTransientWrapping(t *testing.T) {
	// A permanent error wrapping a transient message stays permanent.
	perm := NewPermanentError(eris.New("i/o timeout"), 403)
	assert.False(t, IsTransient(perm))
	assert.True(t, IsPermanent(perm))
}

func TestIsTransientStringPatterns(t *testing.T) {
	assert.True(t, IsTransient(eris.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(eris.New("dial tcp: i/o timeout")))
	assert.False(t, IsTransient(eris.New("invalid api key")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := eris.New("boom")
	te := NewTransientError(inner, 500)
	assert.Equal(t, "boom", te.Error())
	assert.Equal(t, inner, te.Unwrap())

	pe := NewPermanentError(inner, 404)
	assert.Equal(t, "boom", pe.Error())
	assert.Equal(t, inner, pe.Unwrap())
}
