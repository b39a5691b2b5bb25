package server

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/cardroom/holdem/internal/engine"
	"github.com/cardroom/holdem/internal/fileutil"
)

// Archiver persists every completed hand's history as JSON under
// <dir>/<table_id>/hand_<n>.json. Writes are atomic so a crash mid-archive
// never leaves a truncated history on disk.
type Archiver struct {
	dir    string
	logger *log.Logger
}

// NewArchiver creates an archiver rooted at dir.
func NewArchiver(dir string, logger *log.Logger) *Archiver {
	return &Archiver{dir: dir, logger: logger.WithPrefix("archive")}
}

// HandComplete writes one hand history. Archive failures are logged, not
// propagated: a full disk must not halt the game.
func (a *Archiver) HandComplete(tableID string, hist *engine.HandHistory) {
	path := filepath.Join(a.dir, tableID, fmt.Sprintf("hand_%d.json", hist.HandID))
	if err := fileutil.WriteJSONAtomic(path, hist, 0o644); err != nil {
		a.logger.Error("failed to archive hand",
			"table", tableID, "hand", hist.HandID, "err", err)
		return
	}
	a.logger.Debug("hand archived", "table", tableID, "hand", hist.HandID, "path", path)
}
