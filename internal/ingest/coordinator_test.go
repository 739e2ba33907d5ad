package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"quill/internal/storage/local"
	"quill/internal/storage/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	root  string
	temp  string
	sink  *recordingSink
	coord *Coordinator
}

func newLocalFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()
	backend, err := local.New(root)
	require.NoError(t, err)
	temp := filepath.Join(root, ".tmp")
	w, err := NewStreamWriter(temp, HashSHA256, NewTypePolicy(DefaultAllowedTypes))
	require.NoError(t, err)
	sink := &recordingSink{}
	return &fixture{
		root:  root,
		temp:  temp,
		sink:  sink,
		coord: NewCoordinator(w, NewResolver(backend, zerolog.Nop()), sink, opts, zerolog.Nop()),
	}
}

func jpeg(name string, data []byte) UploadItem {
	return UploadItem{Filename: name, ContentType: "image/jpeg", Encoding: "7bit", Content: bytes.NewReader(data)}
}

func TestCoordinator_DuplicateContentInOneBatch(t *testing.T) {
	f := newLocalFixture(t, Options{})
	x := randomBytes(t, 300_000)

	result, err := f.coord.Ingest(context.Background(), []UploadItem{jpeg("a.jpg", x), jpeg("b.jpg", x)})
	require.NoError(t, err)

	want := sha256Hex(x) + ".jpg"
	require.Len(t, result.Files, 2)
	assert.Equal(t, want, result.Files[0].Filename)
	assert.Equal(t, want, result.Files[1].Filename)

	assert.Equal(t, []string{want}, dirEntries(t, f.root))
	assert.Empty(t, dirEntries(t, f.temp))

	calls := f.sink.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 2)
	assert.Equal(t, want, calls[0][0].Filename)
	assert.Equal(t, want, calls[0][1].Filename)

	onDisk, err := os.ReadFile(filepath.Join(f.root, want))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(x, onDisk))
}

func TestCoordinator_ContentAddressingAcrossBatches(t *testing.T) {
	f := newLocalFixture(t, Options{})
	x := randomBytes(t, 1024)

	first, err := f.coord.Ingest(context.Background(), []UploadItem{jpeg("one.jpg", x)})
	require.NoError(t, err)
	second, err := f.coord.Ingest(context.Background(), []UploadItem{jpeg("two.jpg", x)})
	require.NoError(t, err)

	assert.Equal(t, first.Files[0].Filename, second.Files[0].Filename)
	assert.Equal(t, []string{first.Files[0].Filename}, dirEntries(t, f.root))
	assert.Len(t, f.sink.Calls(), 2)
}

func TestCoordinator_FailedFileBlocksAllMetadata(t *testing.T) {
	f := newLocalFixture(t, Options{})
	one, three := randomBytes(t, 100), randomBytes(t, 200)

	result, err := f.coord.Ingest(context.Background(), []UploadItem{
		jpeg("1.jpg", one),
		{Filename: "2.pdf", ContentType: "application/pdf", Content: bytes.NewReader([]byte("%PDF"))},
		jpeg("3.jpg", three),
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrBatchPartialFailure)
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
	assert.Empty(t, f.sink.Calls(), "metadata must not be written")

	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 3, be.Total)
	require.Len(t, be.Failures, 1)
	assert.Equal(t, 1, be.Failures[0].Index)
	assert.Equal(t, "2.pdf", be.Failures[0].Filename)
	assert.Len(t, be.Placed, 2)

	// 已放置的文件不回滚
	assert.ElementsMatch(t, []string{sha256Hex(one) + ".jpg", sha256Hex(three) + ".jpg"}, dirEntries(t, f.root))
	assert.Empty(t, dirEntries(t, f.temp))
}

func TestCoordinator_StreamFailureIsolatedToPipeline(t *testing.T) {
	f := newLocalFixture(t, Options{})
	good := randomBytes(t, 4096)

	_, err := f.coord.Ingest(context.Background(), []UploadItem{
		{Filename: "bad.png", ContentType: "image/png", Content: &failingReader{prefix: []byte("abc"), err: errBrokenPipe}},
		jpeg("good.jpg", good),
	})
	require.ErrorIs(t, err, ErrStreamRead)
	assert.Equal(t, []string{sha256Hex(good) + ".jpg"}, dirEntries(t, f.root))
	assert.Empty(t, dirEntries(t, f.temp))
	assert.Empty(t, f.sink.Calls())
}

func TestCoordinator_StagedModePlacesNothingOnFailure(t *testing.T) {
	f := newLocalFixture(t, Options{Mode: BatchModeStaged})

	_, err := f.coord.Ingest(context.Background(), []UploadItem{
		jpeg("1.jpg", randomBytes(t, 100)),
		{Filename: "2.txt", ContentType: "text/plain", Content: bytes.NewReader([]byte("hi"))},
		jpeg("3.jpg", randomBytes(t, 100)),
	})
	require.ErrorIs(t, err, ErrBatchPartialFailure)

	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Empty(t, be.Placed)
	assert.Empty(t, dirEntries(t, f.root))
	assert.Empty(t, dirEntries(t, f.temp))
	assert.Empty(t, f.sink.Calls())
}

func TestCoordinator_StagedModeCommits(t *testing.T) {
	f := newLocalFixture(t, Options{Mode: BatchModeStaged, MaxConcurrency: 2})
	a, b := randomBytes(t, 10), randomBytes(t, 20)

	result, err := f.coord.Ingest(context.Background(), []UploadItem{jpeg("a.jpg", a), jpeg("b.jpg", b)})
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(a)+".jpg", result.Files[0].Filename)
	assert.Equal(t, sha256Hex(b)+".jpg", result.Files[1].Filename)
	assert.Len(t, dirEntries(t, f.root), 2)
	assert.Len(t, f.sink.Calls(), 1)
}

func TestCoordinator_ReplacementRecreatesFile(t *testing.T) {
	backend := memory.New()
	w, err := NewStreamWriter(filepath.Join(t.TempDir(), ".tmp"), HashSHA256, nil)
	require.NoError(t, err)
	coord := NewCoordinator(w, NewResolver(backend, zerolog.Nop()), &recordingSink{}, Options{}, zerolog.Nop())
	x := randomBytes(t, 5000)
	name := sha256Hex(x) + ".jpg"

	_, err = coord.Ingest(context.Background(), []UploadItem{jpeg("x.jpg", x)})
	require.NoError(t, err)
	_, err = coord.Ingest(context.Background(), []UploadItem{jpeg("x.jpg", x)})
	require.NoError(t, err)

	assert.Equal(t, []string{"move:" + name, "delete:" + name, "move:" + name}, backend.Ops())
	assert.Equal(t, []string{name}, backend.Names())
	got, _ := backend.Get(name)
	assert.True(t, bytes.Equal(x, got))
	assert.Empty(t, dirEntries(t, w.TempDir()))
}

func TestCoordinator_SinkFailure(t *testing.T) {
	f := newLocalFixture(t, Options{})
	f.sink.err = errors.New("db down")

	_, err := f.coord.Ingest(context.Background(), []UploadItem{jpeg("a.jpg", []byte("a"))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.NotErrorIs(t, err, ErrBatchPartialFailure)
}

func TestCoordinator_EmptyBatch(t *testing.T) {
	f := newLocalFixture(t, Options{})
	result, err := f.coord.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Empty(t, f.sink.Calls())
}

// slowReader tracks how many pipelines are reading at once.
type slowReader struct {
	active *int32
	peak   *int32
	data   []byte
	began  bool
}

func (r *slowReader) Read(p []byte) (int, error) {
	if !r.began {
		r.began = true
		n := atomic.AddInt32(r.active, 1)
		for {
			old := atomic.LoadInt32(r.peak)
			if n <= old || atomic.CompareAndSwapInt32(r.peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(r.data) == 0 {
		atomic.AddInt32(r.active, -1)
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestCoordinator_BoundedConcurrency(t *testing.T) {
	f := newLocalFixture(t, Options{MaxConcurrency: 2})
	var active, peak int32

	items := make([]UploadItem, 6)
	for i := range items {
		items[i] = UploadItem{
			Filename:    "f.png",
			ContentType: "image/png",
			Content:     &slowReader{active: &active, peak: &peak, data: []byte{byte(i)}},
		}
	}

	result, err := f.coord.Ingest(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, result.Files, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestParseBatchMode(t *testing.T) {
	mode, err := ParseBatchMode("")
	require.NoError(t, err)
	assert.Equal(t, BatchModeImmediate, mode)

	mode, err = ParseBatchMode("Staged")
	require.NoError(t, err)
	assert.Equal(t, BatchModeStaged, mode)

	_, err = ParseBatchMode("lazy")
	assert.Error(t, err)
}
