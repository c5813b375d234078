package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	content := `# reminders bot
MEDREMINDER_TEST_TOKEN=from-file
MEDREMINDER_TEST_QUOTED="two words"
export MEDREMINDER_TEST_EXPORTED='single'
MEDREMINDER_TEST_KEEP=from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644))

	for _, k := range []string{"MEDREMINDER_TEST_TOKEN", "MEDREMINDER_TEST_QUOTED", "MEDREMINDER_TEST_EXPORTED"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("MEDREMINDER_TEST_KEEP", "from-env")

	require.NoError(t, LoadEnvFiles())

	assert.Equal(t, "from-file", os.Getenv("MEDREMINDER_TEST_TOKEN"))
	assert.Equal(t, "two words", os.Getenv("MEDREMINDER_TEST_QUOTED"))
	assert.Equal(t, "single", os.Getenv("MEDREMINDER_TEST_EXPORTED"))
	assert.Equal(t, "from-env", os.Getenv("MEDREMINDER_TEST_KEEP"), "existing variables are not overridden")
}

func TestLoadEnvFiles_NoFiles(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	assert.NoError(t, LoadEnvFiles())
}

func TestEnvOr(t *testing.T) {
	t.Setenv("MEDREMINDER_TEST_DEFAULT", "")
	assert.Equal(t, "fallback", envOr("MEDREMINDER_TEST_DEFAULT", "fallback"))

	t.Setenv("MEDREMINDER_TEST_DEFAULT", "actual")
	assert.Equal(t, "actual", envOr("MEDREMINDER_TEST_DEFAULT", "fallback"))
}

func TestLookupEnv_Aliases(t *testing.T) {
	t.Setenv("MEDREMINDER_REMINDERS_DISCORD_TOKEN", "")
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_TOKEN", "")
	assert.Empty(t, lookupEnv("MEDREMINDER_REMINDERS_DISCORD_TOKEN"))

	t.Setenv("DISCORD_TOKEN", "second-alias")
	assert.Equal(t, "second-alias", lookupEnv("MEDREMINDER_REMINDERS_DISCORD_TOKEN"))

	t.Setenv("DISCORD_BOT_TOKEN", "first-alias")
	assert.Equal(t, "first-alias", lookupEnv("MEDREMINDER_REMINDERS_DISCORD_TOKEN"))

	t.Setenv("MEDREMINDER_REMINDERS_DISCORD_TOKEN", "canonical")
	assert.Equal(t, "canonical", lookupEnv("MEDREMINDER_REMINDERS_DISCORD_TOKEN"))
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
