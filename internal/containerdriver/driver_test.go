package containerdriver

import (
	"testing"

	"github.com/docker/docker/api/types/mount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVolumesReadWrite(t *testing.T) {
	mounts, err := parseVolumes([]string{"/host/data:/container/data"})
	require.NoError(t, err)
	require.Len(t, mounts, 1)
	assert.Equal(t, mount.TypeBind, mounts[0].Type)
	assert.Equal(t, "/host/data", mounts[0].Source)
	assert.Equal(t, "/container/data", mounts[0].Target)
	assert.False(t, mounts[0].ReadOnly)
}

func TestParseVolumesReadOnlySuffix(t *testing.T) {
	mounts, err := parseVolumes([]string{"/host/data:/container/data:ro"})
	require.NoError(t, err)
	require.Len(t, mounts, 1)
	assert.True(t, mounts[0].ReadOnly)
}

func TestParseVolumesRejectsMalformedSpec(t *testing.T) {
	_, err := parseVolumes([]string{"not-a-volume-spec"})
	assert.Error(t, err)
}

func TestParseVolumesEmptyList(t *testing.T) {
	mounts, err := parseVolumes(nil)
	require.NoError(t, err)
	assert.Empty(t, mounts)
}

func TestNewDriverHoldsEngineURL(t *testing.T) {
	d := New("unix:///var/run/docker.sock")
	assert.Equal(t, "unix:///var/run/docker.sock", d.engineURL)
}
