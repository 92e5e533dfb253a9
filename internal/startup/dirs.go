package startup

import (
	"fmt"
	"os"

	"photo-catalog/internal/logging"
)

// ensureDirectory checks that path is a directory, creating it when create is set.
func ensureDirectory(path, name string, create bool) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && create:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s directory %s: %w", name, path, err)
		}
		logging.Debug("  Created %s directory %s", name, path)
		return nil
	case os.IsNotExist(err):
		return fmt.Errorf("%s directory does not exist: %s", name, path)
	case err != nil:
		return fmt.Errorf("stat %s directory %s: %w", name, path, err)
	case !info.IsDir():
		return fmt.Errorf("%s path is not a directory: %s", name, path)
	}
	return nil
}

// setupOptionalDir creates a directory a feature needs and reports whether
// the feature can be enabled.
func setupOptionalDir(path, name string) bool {
	err := ensureDirectory(path, name, true)
	if err == nil {
		err = testWriteAccess(path)
	}
	if err != nil {
		logging.Warn("  %s directory unusable, %s disabled: %v", name, name, err)
		return false
	}
	logging.Debug("  [OK] %s directory ready: %s", name, path)
	return true
}

func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write test file %s: %v", name, err)
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}
