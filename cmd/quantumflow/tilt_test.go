package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"QuantumFlow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeights(t *testing.T) {
	got, err := parseWeights("nvda=60, MSFT = 40,")
	require.NoError(t, err)
	assert.Equal(t, []model.AssetWeight{{Ticker: "NVDA", Weight: 60}, {Ticker: "MSFT", Weight: 40}}, got)

	got, err = parseWeights("BTCUSD=-0.36")
	require.NoError(t, err)
	assert.Equal(t, -0.36, got[0].Weight)

	for _, bad := range []string{"", "NVDA", "NVDA=abc", " , "} {
		_, err := parseWeights(bad)
		assert.Error(t, err, bad)
	}
}

func runTilt(t *testing.T, args ...string) string {
	t.Helper()
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	cmd := newTiltCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestTiltCmd_TiltFactor(t *testing.T) {
	base := []string{"--priors", "A=60,B=40", "--composites", "A=0.5,B=-0.5", "--profile", "conservative"}

	out := runTilt(t, base...)
	assert.Contains(t, out, "tilt factor 10.0")
	assert.Equal(t, []string{"A", "60.00", "+0.500", "+5.00", "65.00", "65.00", "62.00"}, lineFields(t, out, "A "))

	// An explicit zero is honoured, not replaced by the configured factor.
	out = runTilt(t, append(base, "--tilt-factor", "0")...)
	assert.Contains(t, out, "tilt factor 0.0")
	assert.Equal(t, []string{"A", "60.00", "+0.500", "+0.00", "60.00", "60.00", "60.00"}, lineFields(t, out, "A "))
}
