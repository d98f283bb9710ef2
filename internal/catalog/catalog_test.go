package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	require.Len(t, c.Items(), 4)

	it, ok := c.Get("pkg-2")
	require.True(t, ok)
	assert.Equal(t, int64(4000), it.PriceCents)
	assert.Equal(t, 30, it.DurationDays)
	assert.Equal(t, 2.5, it.DailyProfitPercent)

	_, ok = c.Get("pkg-404")
	assert.False(t, ok)
}

func TestLoadYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
items:
  - id: test-1
    name: Test Rig
    price_cents: 5000
    duration_days: 10
    daily_profit_percent: 1.5
    hashrate: 1 TH/s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Items(), 1)

	it, ok := c.Get("test-1")
	require.True(t, ok)
	assert.Equal(t, int64(5000), it.PriceCents)
	assert.Equal(t, 1.5, it.DailyProfitPercent)
}

func TestLoadEmptyPathFallsBack(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Items(), 4)
}

func TestLoadRejectsInvalidItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
items:
  - id: bad
    price_cents: 0
    duration_days: 10
    daily_profit_percent: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
