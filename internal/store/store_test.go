package store

import (
	"path/filepath"
	"testing"

	"github.com/gmsas95/medreminder/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemory_ForeignKeysOn(t *testing.T) {
	st, err := NewInMemory()
	require.NoError(t, err)
	defer st.Close()

	var enabled int
	require.NoError(t, st.DB().Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestNewInMemory_SingleConnectionKeepsData(t *testing.T) {
	st, err := NewInMemory()
	require.NoError(t, err)
	defer st.Close()

	db := st.DB()
	require.NoError(t, db.Exec("CREATE TABLE scratch (id INTEGER PRIMARY KEY, v TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO scratch (v) VALUES ('a'), ('b')").Error)

	var count int64
	require.NoError(t, db.Table("scratch").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestKV(t *testing.T) {
	st, err := NewInMemory()
	require.NoError(t, err)
	defer st.Close()

	v, err := st.GetString("voice.theme", "alloy")
	require.NoError(t, err)
	assert.Equal(t, "alloy", v)

	require.NoError(t, st.SetString("voice.theme", " nova "))

	v, err = st.GetString("voice.theme", "alloy")
	require.NoError(t, err)
	assert.Equal(t, "nova", v)

	_, err = st.GetKV("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestNew_OnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{
		DataDir:    dir,
		SQLitePath: filepath.Join(dir, "meds.db"),
		BadgerPath: filepath.Join(dir, "prefs"),
	}}

	st, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, st.SetString("k", "v"))
	require.NoError(t, st.Close())

	st, err = New(cfg)
	require.NoError(t, err)
	defer st.Close()

	v, err := st.GetString("k", "")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
