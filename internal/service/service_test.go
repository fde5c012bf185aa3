package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/scanner"
	"github.com/artemshloyda/photoresizer/internal/storage"
	"github.com/artemshloyda/photoresizer/internal/watcher"
)

type memJournal struct {
	mu      sync.Mutex
	entries []storage.Entry
}

func (j *memJournal) Record(r resizer.Result, origin storage.Origin) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, storage.Entry{Filename: r.Filename, Status: string(r.Status), Origin: origin})
	return int64(len(j.entries)), nil
}

func (j *memJournal) origins() map[storage.Origin]int {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[storage.Origin]int)
	for _, e := range j.entries {
		out[e.Origin]++
	}
	return out
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()

	engine := resizer.New(nil)
	controller := watcher.New(engine, scanner.New(nil), nil,
		watcher.WithPollInterval(5*time.Millisecond),
		watcher.WithErrorBackoff(20*time.Millisecond),
		watcher.WithStopTimeout(time.Second),
	)
	return New(engine, controller, nil, opts...)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestService_StartStopRoundTrip(t *testing.T) {
	s := newService(t)

	resp := s.StartWatching()
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
	assert.False(t, s.GetStatus().Running)

	cfg := s.ConfigureFolders(t.TempDir(), filepath.Join(t.TempDir(), "out"))
	require.True(t, cfg.Success, cfg.Message)

	assert.True(t, s.StartWatching().Success)
	assert.True(t, s.GetStatus().Running)

	assert.True(t, s.StopWatching().Success)
	assert.False(t, s.GetStatus().Running)

	// Повторная остановка - отказ без ошибки
	assert.False(t, s.StopWatching().Success)
}

func TestService_ConfigureFoldersFailure(t *testing.T) {
	s := newService(t)

	resp := s.ConfigureFolders(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, s.GetStatus().SourceFolder)
}

func TestService_StatusReflectsPolicy(t *testing.T) {
	s := newService(t)
	src, dst := t.TempDir(), t.TempDir()
	require.True(t, s.ConfigureFolders(src, dst).Success)

	factor := 0.5
	assert.True(t, s.ConfigurePolicy(&factor, nil).Success)

	res := 800
	assert.True(t, s.ConfigurePolicy(nil, &res).Success)

	st := s.GetStatus()
	assert.Equal(t, StatusResponse{
		SourceFolder:         src,
		DestinationFolder:    dst,
		ScalingFactor:        0.5,
		SingleSideResolution: 800,
	}, st)

	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"running":false,"source_folder":"`+src+`","destination_folder":"`+dst+
		`","scaling_factor":0.5,"single_side_resolution":800,"processed_count":0}`, string(data))
}

func TestService_RunInitialPassAndWatch(t *testing.T) {
	journal := &memJournal{}
	s := newService(t, WithJournal(journal))

	src, dst := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(src, "a.png"), 20, 10)
	require.True(t, s.ConfigureFolders(src, dst).Success)

	var seen []string
	pass := s.RunInitialPass(context.Background(), func(r resizer.Result) {
		seen = append(seen, r.Filename)
	})
	require.True(t, pass.Success)
	require.Len(t, pass.Results, 1)
	assert.Equal(t, resizer.StatusProcessed, pass.Results[0].Status)
	assert.Equal(t, []string{"a.png"}, seen)
	assert.Equal(t, 1, s.GetStatus().ProcessedCount)

	require.True(t, s.StartWatching().Success)
	defer s.StopWatching()

	writePNG(t, filepath.Join(src, "b.png"), 20, 10)

	select {
	case r := <-s.Events():
		assert.Equal(t, "b.png", r.Filename)
		assert.FileExists(t, filepath.Join(dst, "b_x1.0.png"))
	case <-time.After(2 * time.Second):
		t.Fatal("событие не получено")
	}

	assert.Eventually(t, func() bool {
		o := journal.origins()
		return o[storage.OriginInitial] == 1 && o[storage.OriginWatch] == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestService_RunInitialPassUnconfigured(t *testing.T) {
	pass := newService(t).RunInitialPass(context.Background(), nil)
	assert.False(t, pass.Success)
	assert.NotNil(t, pass.Results)
	assert.Empty(t, pass.Results)
}

func TestService_DrainEvents(t *testing.T) {
	s := newService(t)
	src := t.TempDir()
	require.True(t, s.ConfigureFolders(src, t.TempDir()).Success)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(src, name), 4, 4)
	}

	require.True(t, s.StartWatching().Success)
	assert.Eventually(t, func() bool { return s.GetStatus().ProcessedCount == 3 }, 2*time.Second, 5*time.Millisecond)
	require.True(t, s.StopWatching().Success)

	first := s.DrainEvents(2)
	assert.Len(t, first, 2)
	rest := s.DrainEvents(0)
	assert.Len(t, rest, 1)
	assert.Empty(t, s.DrainEvents(0))
	assert.Equal(t, int64(0), s.Dropped())
}
