package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type object struct {
	body        []byte
	contentType string
	public      bool
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]object
	keys    []string
	failOn  func(key string) error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]object)}
}

func (s *memStore) Name() string { return "mem" }

func (s *memStore) Put(ctx context.Context, key string, body []byte, contentType string, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		if err := s.failOn(key); err != nil {
			return err
		}
	}
	s.objects[key] = object{body: append([]byte(nil), body...), contentType: contentType, public: public}
	s.keys = append(s.keys, key)
	return nil
}

func (s *memStore) IndexURL(dir string) string { return "mem://" + dir }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func testLayout() Layout {
	return NewLayout("regressions", time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC), "abc", "def", "1ZoneUncontrolled", "runner-7")
}

func TestLayout_Keys(t *testing.T) {
	l := testLayout()
	assert.Equal(t, "regressions/2024-05/abc-def/1ZoneUncontrolled/runner-7", l.Dir())
	assert.Equal(t, "regressions/2024-05/abc-def/1ZoneUncontrolled/runner-7/eplusout.err.diff", l.FileKey("/some/dir/eplusout.err.diff"))
	assert.Equal(t, "regressions/2024-05/abc-def/1ZoneUncontrolled/runner-7/eplusout.err.diff.html", l.ViewerKey("eplusout.err.diff"))
	assert.Equal(t, "regressions/2024-05/abc-def/1ZoneUncontrolled/runner-7/index.html", l.IndexKey())

	bare := NewLayout("", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), "a", "b", "c", "d")
	assert.Equal(t, "2023-12/a-b/c/d", bare.Dir())
}

func TestFindCandidates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "eplusout.err.diff", "x")
	writeFile(t, dir, "eplusout.audit.diff", "y")
	writeFile(t, dir, "eplusout.eso.csvdiff.csv", "z")
	writeFile(t, dir, "eplusout.shd.diff", "")
	writeFile(t, dir, "eplusout.err", "not a diff")
	writeFile(t, dir, ".hidden.a.b", "h")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.dir.x"), 0o755))

	found, empty, err := FindCandidates(dir)
	require.NoError(t, err)

	var names []string
	for _, c := range found {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"eplusout.audit.diff", "eplusout.err.diff", "eplusout.eso.csvdiff.csv"}, names)
	assert.Equal(t, []string{filepath.Join(dir, "eplusout.shd.diff")}, empty)

	_, _, err = FindCandidates(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestDiffStats(t *testing.T) {
	body := "--- a/eplusout.err\n+++ b/eplusout.err\n@@ -1,2 +1,3 @@\n context\n-old\n+new\n+extra\n"
	st := diffStats([]byte(body))
	require.NotNil(t, st)
	assert.Equal(t, 1, st.Files)
	assert.Equal(t, 2, st.Added)
	assert.Equal(t, 1, st.Deleted)

	assert.True(t, isUnifiedDiff("eplusout.err.diff"))
	assert.True(t, isUnifiedDiff("eplusout.mtd.DIF"))
	assert.False(t, isUnifiedDiff("eplusout.eso.csvdiff.csv"))
}

func TestPublish_UploadsFilesViewersAndIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "eplusout.err.diff", "--- a\n+++ b\n@@ -1 +1 @@\n-<old>\n+new\n")
	writeFile(t, dir, "eplusout.eso.csvdiff.csv", "time,var\n1,2\n")
	writeFile(t, dir, "eplusout.bnd.diff", "")

	store := newMemStore()
	var seen []string
	p := New(store, Options{
		Layout: testLayout(),
		Public: true,
		OnFile: func(fr FileResult) { seen = append(seen, fr.Name) },
	})

	res := p.Publish(context.Background(), dir)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempted)
	assert.Len(t, res.Published(), 2)
	assert.Equal(t, "2 of 2 artifacts published", res.Summary())
	assert.Equal(t, []string{filepath.Join(dir, "eplusout.bnd.diff")}, res.Empty)
	assert.Equal(t, []string{"eplusout.err.diff", "eplusout.eso.csvdiff.csv"}, seen)

	d := testLayout().Dir()
	assert.Equal(t, d+"/index.html", res.IndexKey)
	assert.Equal(t, "mem://"+d, res.URL)

	raw, ok := store.objects[d+"/eplusout.err.diff"]
	require.True(t, ok)
	assert.Equal(t, "text/plain", raw.contentType)
	assert.True(t, raw.public)

	viewer, ok := store.objects[d+"/eplusout.err.diff.html"]
	require.True(t, ok)
	assert.Equal(t, "text/html", viewer.contentType)
	assert.Contains(t, string(viewer.body), `class="del">-&lt;old&gt;</span>`)
	assert.Contains(t, string(viewer.body), `href="index.html"`)

	index := string(store.objects[d+"/index.html"].body)
	assert.Contains(t, index, `href="eplusout.err.diff.html"`)
	assert.Contains(t, index, `href="eplusout.eso.csvdiff.csv"`)
	assert.NotContains(t, index, "eplusout.bnd.diff", "empty files are never listed")

	_, ok = store.objects[d+"/eplusout.bnd.diff"]
	assert.False(t, ok, "empty files are never uploaded")

	require.NotEmpty(t, store.keys)
	assert.Equal(t, d+"/index.html", store.keys[len(store.keys)-1], "index is uploaded last")
}

func TestPublish_PerFileFailureContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.err.diff", "a")
	writeFile(t, dir, "b.err.diff", "b")

	store := newMemStore()
	store.failOn = func(key string) error {
		if strings.HasSuffix(key, "/a.err.diff") {
			return errors.New("boom")
		}
		return nil
	}

	res := New(store, Options{Layout: testLayout()}).Publish(context.Background(), dir)

	assert.False(t, res.Success)
	assert.Equal(t, "1 of 2 artifacts published", res.Summary())
	require.Len(t, res.Files, 2)
	assert.Contains(t, res.Files[0].Error, "boom")
	assert.True(t, res.Files[1].OK())

	index := string(store.objects[testLayout().IndexKey()].body)
	assert.NotContains(t, index, "a.err.diff")
	assert.Contains(t, index, "b.err.diff")
	assert.NotEmpty(t, res.URL)
	assert.False(t, store.objects[testLayout().FileKey("b.err.diff")].public)
}

func TestPublish_NoIndexWhenNothingPublished(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.err.diff", "x")
	writeFile(t, dir, "zero.err.diff", "")

	store := newMemStore()
	store.failOn = func(string) error { return errors.New("denied") }

	res := New(store, Options{Layout: testLayout()}).Publish(context.Background(), dir)

	assert.False(t, res.Success)
	assert.Empty(t, res.URL)
	assert.Empty(t, res.IndexKey)
	assert.Empty(t, store.objects)
}

func TestPublish_NoCandidates(t *testing.T) {
	store := newMemStore()
	res := New(store, Options{Layout: testLayout()}).Publish(context.Background(), t.TempDir())

	assert.True(t, res.Success)
	assert.Zero(t, res.Attempted)
	assert.Empty(t, res.URL)
	assert.Empty(t, store.keys)
}

func TestPublish_IndexFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.err.diff", "a")

	store := newMemStore()
	store.failOn = func(key string) error {
		if strings.HasSuffix(key, "/index.html") {
			return errors.New("index denied")
		}
		return nil
	}

	res := New(store, Options{Layout: testLayout()}).Publish(context.Background(), dir)

	assert.False(t, res.Success)
	assert.Len(t, res.Published(), 1)
	assert.Empty(t, res.URL)
	assert.Contains(t, strings.Join(res.Errors, ";"), "index denied")
}

func TestPublish_MissingDirectory(t *testing.T) {
	res := New(newMemStore(), Options{Layout: testLayout()}).Publish(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)
}

func TestPublish_RateLimitedUploadsHonourCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.err.diff", "a")
	writeFile(t, dir, "b.err.diff", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemStore()
	res := New(store, Options{Layout: testLayout(), UploadRate: 0.001}).Publish(ctx, dir)

	assert.False(t, res.Success)
	assert.Empty(t, store.keys)
}
