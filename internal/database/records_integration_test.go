package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"photo-catalog/internal/catalog"
)

func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := New(context.Background(), Options{Path: path})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return db, path
}

func ptr(s string) *string { return &s }

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func seed(t *testing.T, db *Database) {
	t.Helper()
	records := []catalog.Record{
		{FullPath: "/photos/a.jpg", CreatedTime: "2021-01-01T00:00:00", ImageFilename: "a.jpg",
			Make: ptr("Apple"), Model: ptr("iPhone 7"), CaptureTime: ptr("2020-11-13 10:00:00"), KeywordTags: ptr("beach,sunset")},
		{FullPath: "/photos/b.jpg", CreatedTime: "2021-01-01T00:00:00", ImageFilename: "b.jpg",
			CaptureTime: ptr("2020-11-13"), KeywordTags: ptr("family")},
		{FullPath: "/photos/sub/a.jpg", CreatedTime: "2021-01-01T00:00:00", ImageFilename: "a.jpg",
			CaptureTime: ptr("2019-05-01 08:00:00"), KeywordTags: ptr("100%_real")},
		{FullPath: "/photos/c.png", CreatedTime: "2021-01-01T00:00:00", ImageFilename: "c.png"},
	}
	for _, r := range records {
		if err := db.InsertRecord(context.Background(), r); err != nil {
			t.Fatalf("InsertRecord(%s): %v", r.FullPath, err)
		}
	}
}

func paths(records []catalog.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.FullPath)
	}
	return out
}

func TestInsertAndGetRecordIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()
	seed(t, db)

	ctx := context.Background()

	r, err := db.GetRecord(ctx, "/photos/a.jpg")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if str(r.Make) != "Apple" || str(r.Model) != "iPhone 7" || str(r.CaptureTime) != "2020-11-13 10:00:00" {
		t.Errorf("unexpected record: %+v", r)
	}

	c, err := db.GetRecord(ctx, "/photos/c.png")
	if err != nil {
		t.Fatal(err)
	}
	if c.Make != nil || c.CaptureTime != nil || c.KeywordTags != nil {
		t.Errorf("null columns should scan as nil: %+v", c)
	}

	if _, err := db.GetRecord(ctx, "/photos/none.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord(missing) error = %v, want ErrNotFound", err)
	}

	if err := db.InsertRecord(ctx, catalog.Record{FullPath: "/photos/a.jpg", ImageFilename: "a.jpg"}); err == nil {
		t.Error("duplicate full_path insert should fail")
	}
	if err := db.InsertRecord(ctx, catalog.Record{}); !errors.Is(err, catalog.ErrEmptyPath) {
		t.Errorf("empty path insert error = %v", err)
	}
}

func TestListAllPathsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()
	seed(t, db)

	got, err := db.ListAllPaths(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{"/photos/a.jpg", "/photos/b.jpg", "/photos/c.png", "/photos/sub/a.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListAllPaths() = %v, want %v", got, want)
	}
}

func TestSearchIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()
	seed(t, db)

	tests := []struct {
		name     string
		criteria SearchCriteria
		want     []string
	}{
		{name: "no criteria", criteria: SearchCriteria{}, want: []string{}},
		{name: "filename exact", criteria: SearchCriteria{Filename: "a.jpg"}, want: []string{"/photos/a.jpg", "/photos/sub/a.jpg"}},
		{name: "filename not prefix", criteria: SearchCriteria{Filename: "a"}, want: []string{}},
		{name: "date with and without time", criteria: SearchCriteria{Date: "2020-11-13"}, want: []string{"/photos/a.jpg", "/photos/b.jpg"}},
		{name: "tag substring", criteria: SearchCriteria{TagSubstring: "sun"}, want: []string{"/photos/a.jpg"}},
		{name: "wildcards are literal", criteria: SearchCriteria{TagSubstring: "0%_r"}, want: []string{"/photos/sub/a.jpg"}},
		{name: "underscore literal", criteria: SearchCriteria{TagSubstring: "_"}, want: []string{"/photos/sub/a.jpg"}},
		{name: "combined", criteria: SearchCriteria{Date: "2020-11-13", Filename: "b.jpg"}, want: []string{"/photos/b.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := db.Search(context.Background(), tt.criteria)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			got := paths(records)
			sort.Strings(got)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListRecentIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()
	seed(t, db)

	ctx := context.Background()

	records, err := db.ListRecent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/photos/a.jpg", "/photos/b.jpg", "/photos/sub/a.jpg", "/photos/c.png"}
	if got := paths(records); !reflect.DeepEqual(got, want) {
		t.Errorf("ListRecent() = %v, want %v", got, want)
	}

	records, err = db.ListRecent(ctx, 2)
	if err != nil || len(records) != 2 {
		t.Errorf("ListRecent(2) = %d records, %v", len(records), err)
	}

	records, err = db.ListRecent(ctx, 0)
	if err != nil || len(records) != 0 {
		t.Errorf("ListRecent(0) = %d records, %v", len(records), err)
	}
}

func TestTagsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()
	seed(t, db)

	ctx := context.Background()

	got, err := db.GetTags(ctx, "/photos/a.jpg")
	if err != nil || str(got) != "beach,sunset" {
		t.Errorf("GetTags() = %s, %v", str(got), err)
	}

	got, err = db.GetTags(ctx, "/photos/c.png")
	if err != nil || got != nil {
		t.Errorf("GetTags() on untagged = %s, %v", str(got), err)
	}

	if _, err := db.GetTags(ctx, "/photos/none.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTags(missing) error = %v", err)
	}

	rows, err := db.SetTags(ctx, "/photos/c.png", "new")
	if err != nil || rows != 1 {
		t.Errorf("SetTags() = %d, %v", rows, err)
	}
	if got, _ := db.GetTags(ctx, "/photos/c.png"); str(got) != "new" {
		t.Errorf("after SetTags, tags = %s", str(got))
	}

	if _, err := db.SetTags(ctx, "/photos/c.png", ""); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetTags(ctx, "/photos/c.png"); got != nil {
		t.Errorf("empty SetTags should store NULL, got %s", str(got))
	}

	rows, err = db.SetTags(ctx, "/photos/none.jpg", "x")
	if err != nil || rows != 0 {
		t.Errorf("SetTags(missing) = %d, %v", rows, err)
	}
}

func TestUpdateMetadataFieldsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()
	seed(t, db)

	ctx := context.Background()

	rows, err := db.UpdateMetadataFields(ctx, "/photos/a.jpg", catalog.MetadataUpdate{Model: ptr("iPhone 8")})
	if err != nil || rows != 1 {
		t.Fatalf("UpdateMetadataFields() = %d, %v", rows, err)
	}

	r, _ := db.GetRecord(ctx, "/photos/a.jpg")
	if str(r.Make) != "Apple" || str(r.Model) != "iPhone 8" || str(r.CaptureTime) != "2020-11-13 10:00:00" {
		t.Errorf("COALESCE update changed other fields: %+v", r)
	}

	rows, err = db.UpdateMetadataFields(ctx, "/photos/a.jpg", catalog.MetadataUpdate{Model: ptr("iPhone 8")})
	if err != nil || rows != 1 {
		t.Errorf("unchanged update should still match the row: %d, %v", rows, err)
	}

	rows, err = db.UpdateMetadataFields(ctx, "/photos/none.jpg", catalog.MetadataUpdate{Make: ptr("X")})
	if err != nil || rows != 0 {
		t.Errorf("UpdateMetadataFields(missing) = %d, %v", rows, err)
	}
}

func TestLastSyncAndStatsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	last, err := db.GetLastSync(ctx)
	if err != nil || !last.IsZero() {
		t.Errorf("GetLastSync() before any sync = %v, %v", last, err)
	}

	if _, err := db.GetMetadata(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata(missing) error = %v", err)
	}

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	if err := db.SetLastSync(ctx, now); err != nil {
		t.Fatal(err)
	}
	if err := db.SetLastSync(ctx, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	last, err = db.GetLastSync(ctx)
	if err != nil || !last.Equal(now.Add(time.Hour)) {
		t.Errorf("GetLastSync() = %v, %v", last, err)
	}

	seed(t, db)
	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Records != 4 || stats.Tagged != 3 || stats.WithCaptureTime != 3 {
		t.Errorf("GetStats() = %+v", stats)
	}
	if !stats.LastSync.Equal(now.Add(time.Hour)) {
		t.Errorf("stats.LastSync = %v", stats.LastSync)
	}
}

func TestSyncAgainstDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	dir := t.TempDir()
	table := []catalog.Record{
		{FullPath: filepath.Join(dir, "IMG.jpg"), ImageFilename: "IMG.jpg"},
		{FullPath: filepath.Join(dir, "img.JPG"), ImageFilename: "img.JPG"},
		{FullPath: filepath.Join(dir, "other.jpg"), ImageFilename: "other.jpg"},
	}

	first, err := catalog.SyncWithStore(ctx, db, table)
	if err != nil || first.Inserted != 2 {
		t.Fatalf("first sync = %+v, %v", first, err)
	}
	second, err := catalog.SyncWithStore(ctx, db, table)
	if err != nil || second.Inserted != 0 {
		t.Errorf("second sync = %+v, %v", second, err)
	}
	if n, _ := db.CountRecords(ctx); n != 2 {
		t.Errorf("CountRecords() = %d, want 2", n)
	}
}
