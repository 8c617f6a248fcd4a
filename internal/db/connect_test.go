package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	s, err := Connect(WithInMemory(true))
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s)

	var name string
	err = s.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "kv", name)
}

func TestConnectWithPath(t *testing.T) {
	s, err := Connect(WithPath(t.TempDir() + "/nested/test.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping())
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(&dbOptions{inMemory: true})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)

	dir := t.TempDir()
	dsn, err = buildDSN(&dbOptions{path: dir + "/a.db", isReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "file:"+dir+"/a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&mode=ro", dsn)

	o := &dbOptions{}
	WithTesting(true)(o)
	WithReadOnly(true)(o)
	dsn, err = buildDSN(o)
	require.NoError(t, err)
	assert.Equal(t, "file:"+testDB+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&mode=ro", dsn)
}
