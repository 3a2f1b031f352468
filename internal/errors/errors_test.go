package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Wrap(Transport, "post /query", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("ask: %w", base)

	assert.Equal(t, Transport, KindOf(wrapped))
	assert.True(t, Is(wrapped, Transport))
	assert.False(t, Is(wrapped, Server))
	assert.True(t, stderrors.Is(wrapped, io.ErrUnexpectedEOF))
	assert.Equal(t, "post /query", MessageOf(wrapped))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "server: no such table", New(Server, "no such table").Error())
	assert.Equal(t, "decode: bad body: unexpected EOF", Wrap(Decode, "bad body", io.ErrUnexpectedEOF).Error())
}

func TestPlainErrorsHaveNoKind(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(io.EOF))
	assert.False(t, Is(nil, Transport))
	assert.Empty(t, MessageOf(io.EOF))
}
