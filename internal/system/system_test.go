package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"old.mp3", "new.WAV", "newest.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, nil, 0644))
		mod := time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}

	got, err := FindLatest(dir, AudioExtensions...)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.WAV"), got)

	_, err = FindLatest(dir, ".pdf")
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration([]byte("3.504000\n"))
	require.NoError(t, err)
	assert.Equal(t, 3.504, d)

	_, err = parseDuration([]byte("N/A"))
	assert.Error(t, err)
}

func TestPickEncoder(t *testing.T) {
	assert.Equal(t, "h264_videotoolbox", pickEncoder(" V....D h264_videotoolbox  VideoToolbox H.264 Encoder"))
	assert.Equal(t, "h264_nvenc", pickEncoder(" V....D h264_nvenc  NVIDIA NVENC H.264 encoder"))
	assert.Equal(t, "libx264", pickEncoder(" V....D libx264  libx264 H.264"))
}

func TestCheckBinaries(t *testing.T) {
	err := CheckBinaries("definitely-not-a-binary-xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-a-binary-xyz")
}

func TestHostInfo(t *testing.T) {
	host, err := HostInfo()
	require.NoError(t, err)
	assert.Positive(t, host.LogicalCPUs)
	assert.Positive(t, host.TotalMemory)
}

func TestImagePool(t *testing.T) {
	pool := NewImagePool()
	img := pool.Get(8, 4)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
	pool.Put(img)
	pool.Put(nil)

	other := pool.Get(2, 2)
	assert.Equal(t, 2, other.Bounds().Dx())
}
