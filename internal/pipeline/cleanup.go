package pipeline

import (
	"log/slog"
	"os"
)

// Remove deletes temporary artifacts. A file that is already gone is
// fine; a deletion failure is logged and does not stop the rest of the
// cleanup.
func Remove(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Error("Failed to delete temporary file", "path", path, "error", err)
		}
	}
}
