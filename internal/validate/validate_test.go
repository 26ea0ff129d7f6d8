package validate

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":                    true,
		"jane.doe@example.com":      true,
		"jane-doe@mail.example.org": true,
		"user@example.co.uk":        true,
		"a@@b":                      false,
		"plainaddress":              false,
		"user@example":              false,
		"user@example.abcd":         false,
		"user..dots@example.com":    false,
		"":                          false,
	}

	for input, want := range cases {
		got, err := Validate(input, Email)
		require.NoError(t, err)
		assert.Equal(t, want, got, "email %q", input)
	}
}

func TestValidateAlphanumeric(t *testing.T) {
	cases := map[string]bool{
		"Jane Doe":      true,
		"jane_doe-42":   true,
		"":              false,
		"jane!":         false,
		"<script>":      false,
		"Jane\vDoe":     true,
		"Jane\u00a0Doe": true,
		"Jane\u3000Doe": true,
		"Jane\u2028Doe": true,
		"Jane\u200bDoe": false,
	}

	for input, want := range cases {
		got, err := Validate(input, Alphanumeric)
		require.NoError(t, err)
		assert.Equal(t, want, got, "alphanumeric %q", input)
	}
}

func TestValidateNumeric(t *testing.T) {
	cases := map[string]bool{
		"1999":  true,
		"0":     true,
		"":      false,
		"19.99": false,
		"-1":    false,
		"1e3":   false,
	}

	for input, want := range cases {
		got, err := Validate(input, Numeric)
		require.NoError(t, err)
		assert.Equal(t, want, got, "numeric %q", input)
	}
}

func TestValidateNonEmpty(t *testing.T) {
	ok, err := Validate("  x ", NonEmpty)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Validate(" \t\n", NonEmpty)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Validate("", NonEmpty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateUnknownKind(t *testing.T) {
	ok, err := Validate("anything", Kind("uuid"))
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKind))

	oopsErr, isOops := oops.AsOops(err)
	require.True(t, isOops)
	assert.Equal(t, "VALIDATE_UNKNOWN_KIND", oopsErr.Code())
}
