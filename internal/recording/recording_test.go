package recording

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/datastore"
	"github.com/thermalab/thermal-ar-go/internal/errors"
	"github.com/thermalab/thermal-ar-go/internal/frame"
)

func testManager(t *testing.T, store datastore.Interface) (*Manager, string) {
	t.Helper()

	dir := t.TempDir()
	settings := &conf.Settings{}
	settings.Realtime.Thermal = conf.ThermalSettings{Width: 4, Height: 4, SensorFPS: 60, TargetFPS: 30}
	settings.Realtime.Recording.Path = dir
	if store == nil {
		store = &datastore.NoopStore{}
	}
	return NewManager(settings, store, nil), dir
}

func testFrame(value float64) *frame.Frame {
	f := frame.NewFrame(4, 4)
	for i := range f.Pix {
		f.Pix[i] = value
	}
	return f
}

func TestSessionRoundTrip(t *testing.T) {
	mgr, dir := testManager(t, nil)

	name, err := mgr.Start("")
	require.NoError(t, err)
	assert.Contains(t, name, "recording_")

	for i := uint64(1); i <= 3; i++ {
		mgr.Persist(testFrame(8192), &analysis.Annotation{FrameNumber: i * 2, Timestamp: int64(i) * 1000})
	}

	meta, err := mgr.Stop()
	require.NoError(t, err)
	assert.Equal(t, 3, meta.TotalFrames)
	assert.Equal(t, [2]int{4, 4}, meta.Resolution)
	assert.Equal(t, 30, meta.FPS)
	require.Len(t, meta.Frames, 3)
	assert.Equal(t, "frame_000000.raw", meta.Frames[0].FrameFile)
	assert.Equal(t, "annotations_000002.json", meta.Frames[2].AnnotationFile)
	assert.Equal(t, uint64(6), meta.Frames[2].Frame)

	sessionDir := filepath.Join(dir, name)

	// the raw file holds little-endian 16-bit samples
	raw, err := os.ReadFile(filepath.Join(sessionDir, "frame_000000.raw"))
	require.NoError(t, err)
	require.Len(t, raw, 4*4*2)
	assert.Equal(t, uint16(8192), binary.LittleEndian.Uint16(raw))

	// the metadata index on disk matches what Stop returned
	metaBytes, err := os.ReadFile(filepath.Join(sessionDir, "metadata.json"))
	require.NoError(t, err)
	var onDisk Metadata
	require.NoError(t, json.Unmarshal(metaBytes, &onDisk))
	assert.Equal(t, meta.SessionName, onDisk.SessionName)
	assert.Equal(t, 3, onDisk.TotalFrames)

	// per-cycle annotation files are readable
	annBytes, err := os.ReadFile(filepath.Join(sessionDir, "annotations_000000.json"))
	require.NoError(t, err)
	var ann analysis.Annotation
	require.NoError(t, json.Unmarshal(annBytes, &ann))
	assert.Equal(t, uint64(2), ann.FrameNumber)
}

func TestNamedSession(t *testing.T) {
	mgr, dir := testManager(t, nil)

	name, err := mgr.Start("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", name)

	meta, err := mgr.Stop()
	require.NoError(t, err)
	assert.Equal(t, "s1", meta.SessionName)
	assert.DirExists(t, filepath.Join(dir, "s1"))
}

func TestInvalidStateTransitions(t *testing.T) {
	mgr, _ := testManager(t, nil)

	_, err := mgr.Stop()
	assert.True(t, errors.Is(err, ErrNotRecording))

	_, err = mgr.Start("")
	require.NoError(t, err)
	_, err = mgr.Start("")
	assert.True(t, errors.Is(err, ErrAlreadyRecording))

	_, err = mgr.Stop()
	require.NoError(t, err)
	_, err = mgr.Stop()
	assert.True(t, errors.Is(err, ErrNotRecording))
}

func TestPersistWhileIdleIsNoop(t *testing.T) {
	mgr, dir := testManager(t, nil)

	mgr.Persist(testFrame(1000), &analysis.Annotation{FrameNumber: 2})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestActiveReporting(t *testing.T) {
	mgr, _ := testManager(t, nil)

	_, active := mgr.Active()
	assert.False(t, active)

	name, err := mgr.Start("")
	require.NoError(t, err)
	activeName, active := mgr.Active()
	assert.True(t, active)
	assert.Equal(t, name, activeName)

	_, err = mgr.Stop()
	require.NoError(t, err)
	_, active = mgr.Active()
	assert.False(t, active)
}

func TestSessionIndexedInStore(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "sessions.db")
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	mgr, _ := testManager(t, store)
	name, err := mgr.Start("")
	require.NoError(t, err)
	mgr.Persist(testFrame(100), &analysis.Annotation{FrameNumber: 2})
	meta, err := mgr.Stop()
	require.NoError(t, err)

	row, err := store.GetSession(name)
	require.NoError(t, err)
	assert.Equal(t, meta.TotalFrames, row.TotalFrames)
	assert.NotEmpty(t, row.Path)
}

func TestPersistConcurrentWithStop(t *testing.T) {
	mgr, _ := testManager(t, nil)

	_, err := mgr.Start("")
	require.NoError(t, err)

	ann := &analysis.Annotation{FrameNumber: 2}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				mgr.Persist(testFrame(8192), ann)
			}
		}
	}()

	// Stop races the persisting goroutine; the session must finalize
	// without a send on the closed writer queue.
	_, err = mgr.Stop()
	require.NoError(t, err)

	close(stop)
	wg.Wait()

	_, active := mgr.Active()
	assert.False(t, active)
}
