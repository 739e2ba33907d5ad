package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"quill/internal/storage/local"
	"quill/internal/storage/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDigest = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

func TestResolver_FinalizeNewFile(t *testing.T) {
	backend := memory.New()
	backend.PutTemp("/tmp/upload-1", []byte("hello"))
	r := NewResolver(backend, zerolog.Nop())

	file, err := r.Finalize(context.Background(), StagedFile{TempPath: "/tmp/upload-1", Digest: testDigest, Size: 5}, "image/jpeg", "7bit")
	require.NoError(t, err)

	assert.Equal(t, testDigest+".jpg", file.Filename)
	assert.Equal(t, "image/jpeg", file.ContentType)
	assert.Equal(t, "7bit", file.Encoding)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, []string{"move:" + testDigest + ".jpg"}, backend.Ops())
}

func TestResolver_EvictsExistingFile(t *testing.T) {
	backend := memory.New()
	name := testDigest + ".png"
	backend.Put(name, []byte("hello"))
	backend.PutTemp("/tmp/upload-2", []byte("hello"))
	r := NewResolver(backend, zerolog.Nop())

	_, err := r.Finalize(context.Background(), StagedFile{TempPath: "/tmp/upload-2", Digest: testDigest, Size: 5}, "image/png", "7bit")
	require.NoError(t, err)

	assert.Equal(t, []string{"delete:" + name, "move:" + name}, backend.Ops())
	got, ok := backend.Get(name)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got)
}

func TestResolver_MissingTempFile(t *testing.T) {
	backend := memory.New()
	r := NewResolver(backend, zerolog.Nop())

	_, err := r.Finalize(context.Background(), StagedFile{
		TempPath: filepath.Join(t.TempDir(), "gone"),
		Digest:   testDigest,
	}, "image/png", "7bit")
	require.ErrorIs(t, err, ErrPlacement)
	assert.Empty(t, backend.Names())
}

func TestResolver_FailuresLeaveCanonicalState(t *testing.T) {
	name := testDigest + ".gif"

	t.Run("delete fails", func(t *testing.T) {
		backend := memory.New()
		backend.Put(name, []byte("old"))
		backend.DeleteErr = errors.New("permission denied")
		backend.PutTemp("/tmp/upload-3", []byte("old"))
		r := NewResolver(backend, zerolog.Nop())

		_, err := r.Finalize(context.Background(), StagedFile{TempPath: "/tmp/upload-3", Digest: testDigest}, "image/gif", "7bit")
		require.ErrorIs(t, err, ErrPlacement)
		got, ok := backend.Get(name)
		require.True(t, ok)
		assert.Equal(t, []byte("old"), got)
	})

	t.Run("move fails after eviction", func(t *testing.T) {
		backend := memory.New()
		backend.Put(name, []byte("old"))
		backend.MoveErr = errors.New("cross-device link")
		backend.PutTemp("/tmp/upload-4", []byte("old"))
		r := NewResolver(backend, zerolog.Nop())

		_, err := r.Finalize(context.Background(), StagedFile{TempPath: "/tmp/upload-4", Digest: testDigest}, "image/gif", "7bit")
		require.ErrorIs(t, err, ErrPlacement)
		// 删除已经发生：这是删除与移动之间的已知窗口
		assert.Equal(t, []string{"delete:" + name}, backend.Ops())
	})
}

func TestResolver_SerializesSamePath(t *testing.T) {
	backend := memory.New()
	r := NewResolver(backend, zerolog.Nop())

	const workers = 32
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		temp := fmt.Sprintf("/tmp/upload-%d", i)
		backend.PutTemp(temp, []byte("same"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.Finalize(context.Background(), StagedFile{TempPath: temp, Digest: testDigest, Size: 4}, "image/webp", "7bit")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, []string{testDigest + ".webp"}, backend.Names())
	assert.Zero(t, r.locks.size(), "lock entries must be released")
}

func TestResolver_LocalAtomicVisibility(t *testing.T) {
	root := t.TempDir()
	backend, err := local.New(root)
	require.NoError(t, err)
	w, err := NewStreamWriter(filepath.Join(root, ".tmp"), HashSHA256, nil)
	require.NoError(t, err)
	r := NewResolver(backend, zerolog.Nop())

	data := randomBytes(t, 2<<20)
	canonical := filepath.Join(root, sha256Hex(data)+".png")

	done := make(chan struct{})
	readerErr := make(chan error, 1)
	go func() {
		defer close(readerErr)
		for {
			select {
			case <-done:
				return
			default:
			}
			got, err := os.ReadFile(canonical)
			if err != nil {
				continue
			}
			if !bytes.Equal(got, data) {
				readerErr <- fmt.Errorf("observed partial canonical file: %d bytes", len(got))
				return
			}
		}
	}()

	for i := 0; i < 20; i++ {
		staged, err := w.Stage(context.Background(), UploadItem{ContentType: "image/png", Content: bytes.NewReader(data)})
		require.NoError(t, err)
		_, err = r.Finalize(context.Background(), staged, "image/png", "7bit")
		require.NoError(t, err)
	}
	close(done)

	require.NoError(t, <-readerErr)
	assert.Equal(t, []string{filepath.Base(canonical)}, dirEntries(t, root))
	assert.Empty(t, dirEntries(t, w.TempDir()))
}

func TestIsCanonicalName(t *testing.T) {
	assert.True(t, IsCanonicalName(testDigest+".jpg"))
	assert.True(t, IsCanonicalName(testDigest+".svg"))
	assert.False(t, IsCanonicalName(testDigest))
	assert.False(t, IsCanonicalName("../"+testDigest+".jpg"))
	assert.False(t, IsCanonicalName(testDigest[:63]+".jpg"))
	assert.False(t, IsCanonicalName("photo.jpg"))
}
