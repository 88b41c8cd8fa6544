package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeValidation, "bad input")
	assert.Equal(t, "validation: bad input", err.Error())
	assert.NotEmpty(t, err.Stack)
	assert.True(t, IsType(err, ErrorTypeValidation))
	assert.False(t, IsType(err, ErrorTypeFile))
}

func TestWrap(t *testing.T) {
	sentinel := stderrors.New("column not found")

	err := Wrap(sentinel, ErrorTypeNotFound, "type count").WithDetail("column", "car")
	require.NotNil(t, err)
	assert.Equal(t, "not_found: type count [column=car]: column not found", err.Error())
	assert.True(t, Is(err, sentinel))

	assert.Nil(t, Wrap(nil, ErrorTypeData, "nothing"))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeData, "inner")
	outer := Wrap(inner, ErrorTypeConfig, "outer")
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, IsType(outer, ErrorTypeConfig))
	assert.True(t, IsType(outer, ErrorTypeData))

	var target *Error
	require.True(t, As(outer, &target))
	assert.Equal(t, ErrorTypeConfig, target.Type)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeFile, "cannot open %s", "a.csv")
	assert.Equal(t, "file: cannot open a.csv", err.Error())
}
