package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firlift/firlift/internal/extract"
)

type stubArchive struct {
	mu      sync.Mutex
	loaded  []extract.UploadResult
	loadErr error
	saveErr error
	saves   int
	last    []extract.UploadResult
}

func (a *stubArchive) LoadAll(_ context.Context) ([]extract.UploadResult, error) {
	return a.loaded, a.loadErr
}

func (a *stubArchive) SaveAll(_ context.Context, entries []extract.UploadResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saves++
	a.last = entries
	return a.saveErr
}

func (a *stubArchive) saveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

func entry(i int) extract.UploadResult {
	return extract.UploadResult{
		ID:              fmt.Sprintf("r%d", i),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		ExtractionType:  "text",
		CorrectionStats: map[string]any{},
	}
}

func TestPushEnforcesCap(t *testing.T) {
	s := NewStore(20, nil, nil)
	for i := 1; i <= 25; i++ {
		s.Push(entry(i))
	}

	require.Equal(t, 20, s.Len())
	list := s.List()
	assert.Equal(t, "r25", list[0].ID)
	assert.Equal(t, "r6", list[len(list)-1].ID)
}

func TestSelectDoesNotMutate(t *testing.T) {
	s := NewStore(20, nil, nil)
	for i := 1; i <= 3; i++ {
		s.Push(entry(i))
	}
	before := s.List()

	got := s.Select("r2")
	require.NotNil(t, got)
	assert.Equal(t, "r2", got.ID)
	assert.Equal(t, before, s.List())

	assert.Nil(t, s.Select("missing"))
}

func TestPushPersistsAsynchronously(t *testing.T) {
	arch := &stubArchive{}
	s := NewStore(20, arch, nil)
	s.Push(entry(1))

	require.Eventually(t, func() bool { return arch.saveCount() == 1 }, time.Second, 10*time.Millisecond)
	arch.mu.Lock()
	defer arch.mu.Unlock()
	require.Len(t, arch.last, 1)
	assert.Equal(t, "r1", arch.last[0].ID)
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	arch := &stubArchive{saveErr: errors.New("disk full")}
	s := NewStore(20, arch, nil)

	s.Push(entry(1))

	// The in-memory update is visible regardless of the archive outcome.
	require.Equal(t, 1, s.Len())
	require.Eventually(t, func() bool { return arch.saveCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "r1", s.List()[0].ID)
}

func TestLoadFailureYieldsEmptyHistory(t *testing.T) {
	arch := &stubArchive{loadErr: errors.New("corrupt record")}
	s := NewStore(20, arch, nil)
	s.Load(context.Background())

	assert.Equal(t, 0, s.Len())
}

func TestLoadTrimsToCap(t *testing.T) {
	arch := &stubArchive{}
	for i := 1; i <= 30; i++ {
		arch.loaded = append(arch.loaded, entry(i))
	}
	s := NewStore(20, arch, nil)
	s.Load(context.Background())

	assert.Equal(t, 20, s.Len())
	assert.Equal(t, "r1", s.List()[0].ID)
}
