package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TimeOrdered(t *testing.T) {
	a, b := New(), New()
	assert.Equal(t, 7, int(a.Version()))
	assert.Less(t, a.String(), b.String())
}

func TestParse(t *testing.T) {
	v := New()

	got, err := Parse("  " + v.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Parse("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNil)

	_, err = Parse("BAT-100")
	assert.Error(t, err)
}
