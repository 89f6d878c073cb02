package cache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePassesThroughNonString(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)
	r := NewResolver(c)

	assert.Equal(t, 5, r.Resolve(5))
	assert.Nil(t, r.Resolve(nil))
}

func TestResolveResultToken(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.WriteOutput("a", "built", 1, false))

	r := NewResolver(c)
	assert.Equal(t, "artifact: built", r.Resolve("artifact: ${result:a}"))
}

func TestResolveResultTokenWithKey(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.WriteOutput("a", map[string]string{"path": "/tmp/out"}, 1, false))

	r := NewResolver(c)
	assert.Equal(t, "/tmp/out", r.Resolve("${result:a:path}"))
}

func TestResolveEnvToken(t *testing.T) {
	t.Setenv("TASKCRAFTER_TEST_VAR", "envvalue")
	c, err := New(t.TempDir())
	require.NoError(t, err)
	r := NewResolver(c)

	assert.Equal(t, "envvalue", r.Resolve("${env:TASKCRAFTER_TEST_VAR}"))
}

func TestResolveFileToken(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/content.txt"
	require.NoError(t, os.WriteFile(path, []byte("filedata"), 0o644))

	c, err := New(t.TempDir())
	require.NoError(t, err)
	r := NewResolver(c)

	assert.Equal(t, "filedata", r.Resolve("${file:"+path+"}"))
}

func TestResolveMissingTokenCollapsesToEmptyString(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)
	r := NewResolver(c)

	assert.Equal(t, "value=", r.Resolve("value=${result:does-not-exist}"))
	assert.Equal(t, "value=", r.Resolve("value=${env:TASKCRAFTER_UNSET_VAR}"))
}
