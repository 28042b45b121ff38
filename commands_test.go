package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lactate-lab/internal/threshold"
)

func TestParseSample(t *testing.T) {
	s, err := parseSample("")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = parseSample("200:2.5")
	require.NoError(t, err)
	assert.Equal(t, 200.0, s.Load)
	assert.Equal(t, 2.5, s.Lactate)
	assert.Nil(t, s.HeartRate)

	s, err = parseSample("200:2.5:152")
	require.NoError(t, err)
	require.NotNil(t, s.HeartRate)
	assert.Equal(t, 152.0, *s.HeartRate)

	for _, bad := range []string{"200", "200:x", "1:2:3:4"} {
		_, err := parseSample(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("180")
	require.NoError(t, err)
	assert.Equal(t, &threshold.Point{Load: 180}, p)

	p, err = parsePoint("250:4.1")
	require.NoError(t, err)
	assert.Equal(t, &threshold.Point{Load: 250, Lactate: 4.1}, p)

	_, err = parsePoint("1:2:3")
	assert.Error(t, err)
}

func TestParseOverride(t *testing.T) {
	in, err := parseOverride("150:1.8", "250:4", "150, 180,250,300")
	require.NoError(t, err)
	require.NotNil(t, in.LT1)
	require.NotNil(t, in.LT2)
	require.NotNil(t, in.Boundaries)
	assert.Equal(t, [4]float64{150, 180, 250, 300}, *in.Boundaries)

	in, err = parseOverride("", "", "")
	require.NoError(t, err)
	assert.Nil(t, in.LT1)
	assert.Nil(t, in.LT2)
	assert.Nil(t, in.Boundaries)

	_, err = parseOverride("", "", "1,2,3")
	assert.ErrorContains(t, err, "expected 4 boundaries")

	_, err = parseOverride("abc", "", "")
	assert.ErrorContains(t, err, "--lt1")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdef12", shortID("abcdef12-3456"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"import", "sessions", "analyze", "compare", "override", "view", "plot", "correct"} {
		assert.True(t, names[want], want)
	}
}
