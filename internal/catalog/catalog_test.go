package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"photo-catalog/internal/exifmeta"
	"photo-catalog/internal/exifmeta/exiftest"
	"photo-catalog/internal/mediatypes"
)

// memoryStore is an in-memory SyncStore and EditStore.
type memoryStore struct {
	records map[string]Record
	order   []string
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]Record)}
}

func (m *memoryStore) ListAllPaths(context.Context) ([]string, error) {
	return append([]string(nil), m.order...), nil
}

func (m *memoryStore) InsertRecord(_ context.Context, r Record) error {
	if m.failOn != "" && strings.Contains(r.FullPath, m.failOn) {
		return errors.New("disk full")
	}
	m.records[r.FullPath] = r
	m.order = append(m.order, r.FullPath)
	return nil
}

func (m *memoryStore) GetTags(_ context.Context, fullPath string) (*string, error) {
	r, ok := m.records[fullPath]
	if !ok {
		return nil, ErrNotFound
	}
	return r.KeywordTags, nil
}

func (m *memoryStore) SetTags(_ context.Context, fullPath, value string) (int64, error) {
	r, ok := m.records[fullPath]
	if !ok {
		return 0, nil
	}
	r.KeywordTags = &value
	m.records[fullPath] = r
	return 1, nil
}

func (m *memoryStore) UpdateMetadataFields(_ context.Context, fullPath string, u MetadataUpdate) (int64, error) {
	r, ok := m.records[fullPath]
	if !ok {
		return 0, nil
	}
	if u.CaptureTime != nil {
		r.CaptureTime = u.CaptureTime
	}
	if u.Make != nil {
		r.Make = u.Make
	}
	if u.Model != nil {
		r.Model = u.Model
	}
	m.records[fullPath] = r
	return 1, nil
}

func ptr(s string) *string { return &s }

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestBuild_EndToEnd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	exiftest.WriteJPEG(t, filepath.Join(root, "photo.jpg"), exiftest.Fields{
		Make:       "Apple",
		Model:      "iPhone 7",
		DateTime:   "2020:11:13 10:00:00",
		XPKeywords: "beach; sunset;beach",
	})
	if err := os.WriteFile(filepath.Join(root, "fake.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	builder := NewBuilder(mediatypes.NewExtensionSet("jpg"), exifmeta.NewExtractor())
	records, err := builder.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Build() returned %d records, want 2", len(records))
	}

	fake, photo := records[0], records[1]

	if photo.ImageFilename != "photo.jpg" {
		t.Errorf("ImageFilename = %q", photo.ImageFilename)
	}
	if !filepath.IsAbs(photo.FullPath) {
		t.Errorf("FullPath %q is not absolute", photo.FullPath)
	}
	if got := str(photo.CaptureTime); got != "2020-11-13 10:00:00" {
		t.Errorf("CaptureTime = %s", got)
	}
	if got := str(photo.Make); got != "Apple" {
		t.Errorf("Make = %s", got)
	}
	if got := str(photo.Model); got != "iPhone 7" {
		t.Errorf("Model = %s", got)
	}
	if got := str(photo.KeywordTags); got != "beach,sunset" {
		t.Errorf("KeywordTags = %s", got)
	}
	if _, err := time.ParseInLocation(CreatedTimeLayout, photo.CreatedTime, time.Local); err != nil {
		t.Errorf("CreatedTime %q: %v", photo.CreatedTime, err)
	}

	if fake.ImageFilename != "fake.jpg" {
		t.Errorf("first record = %q, want fake.jpg", fake.ImageFilename)
	}
	if fake.Make != nil || fake.Model != nil || fake.CaptureTime != nil || fake.KeywordTags != nil {
		t.Errorf("non-image record should have null metadata: %+v", fake)
	}
}

func TestBuild_MissingRoot(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(mediatypes.NewExtensionSet("jpg"), exifmeta.NewExtractor())
	if _, err := builder.Build(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("Build() on missing root should fail")
	}
}

// pathExtractor reports each file's base name as its model.
type pathExtractor struct{}

func (pathExtractor) Extract(path string) map[string]any {
	return map[string]any{"EXIF_Model": filepath.Base(path)}
}

func TestBuild_OrderIndependentOfWorkers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var want []string
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("img%02d.jpg", i)
		if err := os.WriteFile(filepath.Join(root, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		want = append(want, name)
	}

	for _, n := range []int{1, 3, 16} {
		builder := NewBuilder(mediatypes.NewExtensionSet("jpg"), pathExtractor{})
		builder.SetWorkers(n)

		records, err := builder.Build(context.Background(), root)
		if err != nil {
			t.Fatalf("workers=%d: Build() error = %v", n, err)
		}

		var got []string
		for _, r := range records {
			if str(r.Model) != r.ImageFilename {
				t.Errorf("workers=%d: %s got model %s", n, r.ImageFilename, str(r.Model))
			}
			got = append(got, r.ImageFilename)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: order = %v", n, got)
		}
	}
}

func TestBuild_CanceledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.jpg"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(mediatypes.NewExtensionSet("jpg"), pathExtractor{})
	if _, err := builder.Build(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("Build() error = %v, want context.Canceled", err)
	}
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	created := time.Date(2021, 3, 4, 5, 6, 7, 0, time.Local)

	tests := []struct {
		name    string
		fields  map[string]any
		capture string
		make_   string
		tags    string
	}{
		{
			name:    "exif datetime",
			fields:  map[string]any{"EXIF_DateTime": "2019:12:31 23:59:59", "EXIF_Make": " Nikon "},
			capture: "2019-12-31 23:59:59",
			make_:   "Nikon",
			tags:    "<nil>",
		},
		{
			name:    "original fallback",
			fields:  map[string]any{"EXIF_DateTime": "0000:00:00 00:00:00", "EXIF_DateTimeOriginal": "2018:01:02 03:04:05"},
			capture: "2018-01-02 03:04:05",
			make_:   "<nil>",
			tags:    "<nil>",
		},
		{
			name:    "blank keywords",
			fields:  map[string]any{"EXIF_XPKeywords": " ; ", "EXIF_Make": ""},
			capture: "<nil>",
			make_:   "<nil>",
			tags:    "<nil>",
		},
		{
			name:    "numeric make",
			fields:  map[string]any{"EXIF_Make": int64(42), "EXIF_XPKeywords": "a;b"},
			capture: "<nil>",
			make_:   "42",
			tags:    "a,b",
		},
		{
			name:    "no metadata",
			fields:  map[string]any{},
			capture: "<nil>",
			make_:   "<nil>",
			tags:    "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord("/photos/a.jpg", created, tt.fields)
			if r.ImageFilename != "a.jpg" {
				t.Errorf("ImageFilename = %q", r.ImageFilename)
			}
			if r.CreatedTime != "2021-03-04T05:06:07" {
				t.Errorf("CreatedTime = %q", r.CreatedTime)
			}
			if got := str(r.CaptureTime); got != tt.capture {
				t.Errorf("CaptureTime = %s, want %s", got, tt.capture)
			}
			if got := str(r.Make); got != tt.make_ {
				t.Errorf("Make = %s, want %s", got, tt.make_)
			}
			if got := str(r.KeywordTags); got != tt.tags {
				t.Errorf("KeywordTags = %s, want %s", got, tt.tags)
			}
		})
	}
}

func TestRecordValuesFollowColumns(t *testing.T) {
	t.Parallel()

	r := Record{FullPath: "/a.jpg", CreatedTime: "c", Make: ptr("m"), ImageFilename: "a.jpg"}
	want := []any{"/a.jpg", "c", "m", nil, nil, "a.jpg", nil}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if len(Columns) != len(want) {
		t.Errorf("len(Columns) = %d", len(Columns))
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	base := Identity(filepath.Join(sub, "img.jpg"))
	variants := []string{
		filepath.Join(dir, "a", "B", "img.JPG"),
		filepath.Join(dir, "a", ".", "b", "..", "b", "img.jpg"),
		filepath.Join(dir, "a", "b") + string(filepath.Separator) + "img.jpg",
	}
	for _, v := range variants {
		if got := Identity(v); got != base {
			t.Errorf("Identity(%q) = %q, want %q", v, got, base)
		}
	}

	if strings.ContainsRune(base, '\\') || base != strings.ToLower(base) {
		t.Errorf("Identity not normalized: %q", base)
	}
	if got := Identity(`C:\Photos\IMG.jpg`); strings.ContainsRune(got, '\\') {
		t.Errorf("backslashes survive: %q", got)
	}
}

func TestIdentity_RelativePath(t *testing.T) {
	t.Parallel()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(cwd, "some", "img.jpg")
	rel, err := filepath.Rel(cwd, abs)
	if err != nil {
		t.Fatal(err)
	}
	if Identity(rel) != Identity(abs) {
		t.Errorf("relative and absolute identities differ: %q vs %q", Identity(rel), Identity(abs))
	}
}

func TestWithin(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "uploads")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		target string
		want   bool
	}{
		{filepath.Join(root, "x.jpg"), true},
		{filepath.Join(root, "sub", "..", "x.jpg"), true},
		{filepath.Join(root, "..x.jpg"), true},
		{root, true},
		{filepath.Join(root, "..", "x.jpg"), false},
		{root + "-other", false},
		{filepath.Join(root, "..", "UPLOADS", "secret.jpg"), false},
		{filepath.Join(filepath.Dir(root), "Uploads"), false},
	}
	for _, tt := range tests {
		if got := Within(root, tt.target); got != tt.want {
			t.Errorf("Within(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestSync_IdempotentAndIdentityAware(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	table := []Record{
		{FullPath: filepath.Join(dir, "a", "B", "img.JPG"), ImageFilename: "img.JPG"},
		{FullPath: filepath.Join(dir, "a", "b", "img.jpg"), ImageFilename: "img.jpg"},
		{FullPath: filepath.Join(dir, "c.jpg"), ImageFilename: "c.jpg"},
	}

	store := newMemoryStore()
	first, err := SyncWithStore(context.Background(), store, table)
	if err != nil {
		t.Fatalf("first sync error = %v", err)
	}
	if first.Inserted != 2 || first.Skipped != 1 {
		t.Errorf("first sync = %+v, want 2 inserted, 1 skipped", first)
	}

	second, err := SyncWithStore(context.Background(), store, table)
	if err != nil {
		t.Fatalf("second sync error = %v", err)
	}
	if second.Inserted != 0 || second.Skipped != 3 {
		t.Errorf("second sync = %+v, want 0 inserted", second)
	}
	if len(store.order) != 2 {
		t.Errorf("store has %d rows, want 2", len(store.order))
	}
}

func TestSync_LeavesExistingRowsUntouched(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	old := Record{FullPath: "/photos/a.jpg", Make: ptr("Old")}
	_ = store.InsertRecord(context.Background(), old)

	table := []Record{{FullPath: "/PHOTOS/A.jpg", Make: ptr("New")}}
	result, err := NewSynchronizer(store).Sync(context.Background(), table, []string{"/photos/a.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0", result.Inserted)
	}
	if got := str(store.records["/photos/a.jpg"].Make); got != "Old" {
		t.Errorf("existing row modified: Make = %s", got)
	}
}

func TestSync_ContinuesAfterInsertFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.failOn = "bad"

	table := []Record{
		{FullPath: "/p/bad.jpg"},
		{FullPath: "/p/good.jpg"},
		{FullPath: ""},
	}
	result, err := NewSynchronizer(store).Sync(context.Background(), table, nil)
	if err == nil {
		t.Fatal("expected joined error")
	}
	if !errors.Is(err, ErrEmptyPath) {
		t.Errorf("error %v should wrap ErrEmptyPath", err)
	}
	if result.Inserted != 1 || result.Failed != 2 {
		t.Errorf("result = %+v, want 1 inserted, 2 failed", result)
	}
	if _, ok := store.records["/p/good.jpg"]; !ok {
		t.Error("record after failure was not inserted")
	}
}

func TestSync_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewSynchronizer(newMemoryStore()).Sync(ctx, []Record{{FullPath: "/a.jpg"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if result.Inserted != 0 {
		t.Errorf("Inserted = %d after cancel", result.Inserted)
	}
}

func TestEditor_Tags(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	_ = store.InsertRecord(context.Background(), Record{FullPath: "/p/a.jpg", KeywordTags: ptr("x,y")})
	_ = store.InsertRecord(context.Background(), Record{FullPath: "/p/b.jpg"})
	editor := NewEditor(store)
	ctx := context.Background()

	got, rows, err := editor.AddTags(ctx, "/p/a.jpg", "y, z")
	if err != nil || rows != 1 || got != "x,y,z" {
		t.Errorf("AddTags() = %q, %d, %v", got, rows, err)
	}

	got, _, err = editor.RemoveTags(ctx, "/p/a.jpg", "x")
	if err != nil || got != "y,z" {
		t.Errorf("RemoveTags() = %q, %v", got, err)
	}

	got, _, err = editor.RemoveTags(ctx, "/p/b.jpg", "y")
	if err != nil || got != "" {
		t.Errorf("RemoveTags() on empty tags = %q, %v", got, err)
	}

	if _, _, err := editor.AddTags(ctx, "/p/missing.jpg", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddTags() on missing record error = %v", err)
	}
	if _, _, err := editor.AddTags(ctx, " ", "x"); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("AddTags() with empty path error = %v", err)
	}
}

func TestEditor_Metadata(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	_ = store.InsertRecord(context.Background(), Record{
		FullPath:    "/p/a.jpg",
		CaptureTime: ptr("2000-01-01"),
		Make:        ptr("Canon"),
		Model:       ptr("EOS"),
	})
	editor := NewEditor(store)
	ctx := context.Background()

	rows, err := editor.EditMetadataText(ctx, "/p/a.jpg", "2020-11-13 10:00:00,,iPhone 7")
	if err != nil || rows != 1 {
		t.Fatalf("EditMetadataText() = %d, %v", rows, err)
	}
	r := store.records["/p/a.jpg"]
	if str(r.CaptureTime) != "2020-11-13 10:00:00" || str(r.Make) != "Canon" || str(r.Model) != "iPhone 7" {
		t.Errorf("record after edit = %s %s %s", str(r.CaptureTime), str(r.Make), str(r.Model))
	}

	rows, err = editor.EditMetadata(ctx, "/p/a.jpg", MetadataUpdate{CaptureTime: ptr("garbage"), Make: ptr("  ")})
	if err != nil || rows != 0 {
		t.Errorf("no-op edit = %d, %v", rows, err)
	}
	if str(store.records["/p/a.jpg"].CaptureTime) != "2020-11-13 10:00:00" {
		t.Error("invalid capture time overwrote stored value")
	}

	if _, err := editor.EditMetadata(ctx, "/p/missing.jpg", MetadataUpdate{Make: ptr("X")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("EditMetadata() on missing record error = %v", err)
	}
}
