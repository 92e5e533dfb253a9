package catalog

import (
	"os"
	"path/filepath"
	"strings"
)

// Identity returns the key under which two paths are considered the same
// file: absolute against the working directory, "." and ".." removed,
// symlinks resolved as far as the path exists, both slash directions turned into
// "/" and lower-cased.
func Identity(p string) string {
	if p == "" {
		return ""
	}

	s := strings.ReplaceAll(filepath.ToSlash(resolvedAbs(p)), `\`, "/")
	return strings.ToLower(s)
}

func resolvedAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	return resolveExisting(abs)
}

// resolveExisting evaluates symlinks in the longest existing prefix of abs
// and re-appends the rest, so paths to files that do not exist yet resolve
// the same way as their parent directory.
func resolveExisting(abs string) string {
	var rest []string
	dir := abs
	for {
		if _, err := os.Lstat(dir); err == nil {
			resolved, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return abs
			}
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		rest = append(rest, filepath.Base(dir))
		dir = parent
	}
}

// IdentitySet builds a set of identities from persisted paths.
func IdentitySet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		set[Identity(p)] = struct{}{}
	}
	return set
}

// Within reports whether target is root itself or a path below it. Both are
// made absolute with symlinks resolved like Identity, but case is kept: on a
// case-sensitive filesystem "Uploads" and "uploads" are different trees.
func Within(root, target string) bool {
	if root == "" || target == "" {
		return false
	}

	rel, err := filepath.Rel(resolvedAbs(root), resolvedAbs(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
