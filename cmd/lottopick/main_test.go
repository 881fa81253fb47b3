package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

func TestParseRequest(t *testing.T) {
	req, err := parseRequest(" 1, 2,3,,49 ", "Bonus", false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 49}, req.Candidates)
	assert.Equal(t, domain.ImpactBonus, req.Kind)
	assert.False(t, req.Normalize)

	req, err = parseRequest("", "numbers", true)
	require.NoError(t, err)
	assert.Empty(t, req.Candidates)

	_, err = parseRequest("1,x", "numbers", true)
	require.Error(t, err)

	_, err = parseRequest("1", "stars", true)
	require.Error(t, err)
}
