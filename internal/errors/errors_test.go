package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhancedErrorWrapping(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("row not found")
	wrapped := New(fmt.Errorf("lookup: %w", sentinel)).
		Component("datastore").
		Category(CategoryDatabase).
		Context("session", "default").
		Build()

	assert.True(t, Is(wrapped, sentinel))
	assert.Equal(t, "datastore", wrapped.GetComponent())
	assert.Equal(t, string(CategoryDatabase), wrapped.GetCategory())
	assert.Equal(t, "lookup: row not found", wrapped.Error())

	ctx := wrapped.GetContext()
	require.NotNil(t, ctx)
	assert.Equal(t, "default", ctx["session"])
}

func TestEnhancedErrorCategoryMatching(t *testing.T) {
	t.Parallel()

	a := Newf("commit failed").Category(CategoryDatabase).Build()
	b := Newf("different text").Category(CategoryDatabase).Build()
	c := Newf("bad interval").Category(CategoryValidation).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestEnhancedErrorDefaults(t *testing.T) {
	t.Parallel()

	ee := Newf("bare").Build()
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, string(CategoryGeneric), ee.GetCategory())
	assert.Nil(t, ee.GetContext())
}

func TestAs(t *testing.T) {
	t.Parallel()

	inner := Newf("inner").Category(CategoryUplink).Build()
	outer := fmt.Errorf("outer: %w", inner)

	var ee *EnhancedError
	require.True(t, As(outer, &ee))
	assert.Equal(t, string(CategoryUplink), ee.GetCategory())
}
