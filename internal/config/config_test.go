package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	os.Unsetenv("MONGO_URI")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load("api")
	assert.ErrorContains(t, err, "MONGO_URI")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GET_CACHE_TTL_SECONDS", "30")

	cfg, err := Load("bg")
	require.NoError(t, err)
	assert.Equal(t, "bg", cfg.RunMode)
	assert.Equal(t, 30*time.Second, cfg.GetCacheTTL)
	assert.Equal(t, time.Hour, cfg.ClosingSoonScanInterval)
	assert.Equal(t, "8080", cfg.ApiPort)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load("api")
	assert.ErrorContains(t, err, "invalid REDIS_DB")
}

func TestLoadCatalog(t *testing.T) {
	def, err := LoadCatalog("", "Test")
	require.NoError(t, err)
	assert.Equal(t, "Test", def.AppName)
	assert.Contains(t, def.Regions, "Niagara")
	assert.Contains(t, def.SortKeys, "popularity")

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions: [Ottawa, Kingston]\ncategories: [pets]\n"), 0o600))

	cat, err := LoadCatalog(path, "Test")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ottawa", "Kingston"}, cat.Regions)
	assert.Equal(t, []string{"pets"}, cat.Categories)
	assert.Equal(t, def.PriceRanges, cat.PriceRanges)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), "Test")
	assert.Error(t, err)
}
