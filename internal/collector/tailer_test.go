package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `# recorded session
2026-01-12T10:58:20Z join: mc.hypixel.net
chat: Protect your bed and destroy the enemy beds.
not an event
tick
`

func replayTypes(t *testing.T, path string) []string {
	t.Helper()
	var types []string
	tailer := NewTailer(path, false, 10*time.Millisecond)
	require.NoError(t, tailer.Replay(func(e HostEvent) {
		types = append(types, e.Type)
	}))
	return types
}

func TestReplayPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	require.NoError(t, os.WriteFile(path, []byte(sampleTranscript+"disconnect"), 0o600))

	// without follow the unterminated last line is replayed
	assert.Equal(t, []string{EventTypeJoin, EventTypeChat, EventTypeTick, EventTypeDisconnect}, replayTypes(t, path))
}

func TestReplayGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleTranscript))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	assert.Equal(t, []string{EventTypeJoin, EventTypeChat, EventTypeTick}, replayTypes(t, path))
}

func TestReplayZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte(sampleTranscript))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	assert.Equal(t, []string{EventTypeJoin, EventTypeChat, EventTypeTick}, replayTypes(t, path))

	tailer := NewTailer(path, true, 10*time.Millisecond)
	require.NoError(t, tailer.Replay(func(HostEvent) {}))
	assert.Nil(t, tailer.file)
	assert.ErrorIs(t, tailer.Start(), ErrFollowCompressed)
	tailer.Stop()
}

func TestReplayCorruptHeaderClosesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log.gz")
	require.NoError(t, os.WriteFile(path, []byte{0x1f, 0x8b, 0x00, 0x00}, 0o600))

	tailer := NewTailer(path, true, 10*time.Millisecond)
	assert.Error(t, tailer.Replay(func(HostEvent) {}))
	assert.Nil(t, tailer.file)
}

func TestReplayMissingFile(t *testing.T) {
	tailer := NewTailer(filepath.Join(t.TempDir(), "missing.log"), false, time.Second)
	assert.ErrorIs(t, tailer.Replay(func(HostEvent) {}), os.ErrNotExist)
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	require.NoError(t, os.WriteFile(path, []byte("tick\nloa"), 0o600))

	tailer := NewTailer(path, true, 10*time.Millisecond)
	var replayed []string
	require.NoError(t, tailer.Replay(func(e HostEvent) { replayed = append(replayed, e.Type) }))
	assert.Equal(t, []string{EventTypeTick}, replayed)

	require.NoError(t, tailer.Start())
	defer tailer.Stop()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("ding\nunload\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var followed []string
	timeout := time.After(2 * time.Second)
	for len(followed) < 2 {
		select {
		case e := <-tailer.Events:
			followed = append(followed, e.Type)
		case <-timeout:
			t.Fatalf("timed out, got %v", followed)
		}
	}
	assert.Equal(t, []string{EventTypeLoading, EventTypeUnload}, followed)
}
