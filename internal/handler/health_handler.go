package handler

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"dance-storefront/pkg/apierror"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type healthReport struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	MediaCacheSize  string `json:"media_cache_size"`
	MediaCacheFiles int    `json:"media_cache_files"`
}

// HealthHandler reports liveness plus the state of the optional audit
// database and the media cache directory.
type HealthHandler struct {
	db       healthChecker
	cacheDir string
}

func NewHealthHandler(db healthChecker, cacheDir string) *HealthHandler {
	return &HealthHandler{db: db, cacheDir: cacheDir}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok", Database: "disabled"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Health(ctx); err != nil {
			writeError(w, apierror.New("DATABASE_UNAVAILABLE", "audit database unreachable", "", http.StatusServiceUnavailable))
			return
		}
		report.Database = "ok"
	}

	size, files := directoryUsage(h.cacheDir)
	report.MediaCacheSize = humanizeBytes(size)
	report.MediaCacheFiles = files

	writeSuccess(w, http.StatusOK, report, nil)
}

func directoryUsage(root string) (int64, int) {
	var total int64
	var files int
	if root == "" {
		return 0, 0
	}

	_ = filepath.WalkDir(root, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if info, infoErr := entry.Info(); infoErr == nil {
			total += info.Size()
			files++
		}
		return nil
	})
	return total, files
}

func humanizeBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
