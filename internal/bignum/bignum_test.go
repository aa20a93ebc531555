package bignum

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"-0.0e-2", "0"},
		{"12.345", "2469/200"},
		{"1e3", "1000"},
		{"-1e-3", "-1/1000"},
		{"2.0", "2"},
		{"007", "7"},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got.RatString(), c.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "-", ".5", "1.", "1e", "1e+", "-e3", "abc"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	}
}

func TestParseInteger(t *testing.T) {
	got, err := ParseInteger("12.345")
	assert.Nil(t, got)
	assert.Error(t, err)

	got, err = ParseInteger("12.000")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12), got)
}
