package protonerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsKind(t *testing.T) {
	err := New(CRC16Error, "frame 3")
	assert.True(t, errors.Is(err, CRC16Error))
	assert.False(t, errors.Is(err, ReadError))
}

func TestErrorMessageIncludesDetail(t *testing.T) {
	err := New(InvalidHeader, "bad magic 0xAB 0xCD")
	assert.Contains(t, err.Error(), "bad magic")
	assert.Contains(t, err.Error(), "framed read saw bad magic")
}

func TestKindStringUnknown(t *testing.T) {
	assert.Contains(t, Kind(99).String(), "unknown")
}

func TestErrorWithoutDetail(t *testing.T) {
	err := New(MutexError, "")
	assert.Equal(t, MutexError.String(), err.Error())
}
