package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"photo-catalog/internal/mediatypes"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"b.jpg",
		"a/x.JPG",
		"a-b/y.png",
		"a/deeper/z.jpeg",
		"notes.txt",
		"a/readme",
		"c.gif",
	)

	got, err := Scan(root, mediatypes.NewExtensionSet("jpg", "jpeg", "png"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"a-b/y.png", "a/deeper/z.jpeg", "a/x.JPG", "b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_IncludesHiddenEntries(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, ".hidden/a.jpg", ".b.jpg", "c.jpg")

	got, err := Scan(root, mediatypes.NewExtensionSet("jpg"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{".b.jpg", ".hidden/a.jpg", "c.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_Stable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "2021/02/b.jpg", "2021/01/a.jpg", "2020/c.jpg", "z.jpg")
	allowed := mediatypes.NewExtensionSet("jpg")

	first, err := Scan(root, allowed)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(root, allowed)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scans differ: %v vs %v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i-1] >= first[i] {
			t.Errorf("result not strictly ascending at %d: %q >= %q", i, first[i-1], first[i])
		}
	}
}

func TestScan_EmptySetMatchesNothing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "a.jpg")

	got, err := Scan(root, mediatypes.NewExtensionSet())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want empty", got)
	}
}

func TestScan_RootErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "photo.jpg")
	writeTree(t, dir, "photo.jpg")

	tests := []struct {
		name string
		root string
		want error
	}{
		{name: "missing root", root: filepath.Join(dir, "missing"), want: ErrNotFound},
		{name: "file root", root: file, want: ErrNotADirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(tt.root, mediatypes.NewExtensionSet("jpg"))
			if !errors.Is(err, tt.want) {
				t.Errorf("Scan() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScan_SkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "ok.jpg", "locked/hidden.jpg")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, err := Scan(root, mediatypes.NewExtensionSet("jpg"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"ok.jpg"}) {
		t.Errorf("Scan() = %v, want [ok.jpg]", got)
	}
}

func TestScan_FollowsFileSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "real.jpg")
	if err := os.Symlink(filepath.Join(root, "real.jpg"), filepath.Join(root, "link.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "gone.jpg"), filepath.Join(root, "dangling.jpg")); err != nil {
		t.Fatal(err)
	}

	got, err := Scan(root, mediatypes.NewExtensionSet("jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"link.jpg", "real.jpg"}) {
		t.Errorf("Scan() = %v", got)
	}
}

func TestScanner_CanceledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(mediatypes.NewExtensionSet("jpg")).Scan(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}
