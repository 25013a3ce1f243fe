// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/unicode/norm"
)

var (
	fileRequestsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_file_requests_denied_total",
		Help: "Static file requests denied by reason",
	}, []string{"reason"})

	fileRequestsAllowed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelforge_file_requests_allowed_total",
		Help: "Static file requests served",
	})
)

// secureFileServer serves files from root with checks against path
// traversal, symlink escapes, and directory listing. Mount behind
// http.StripPrefix.
func secureFileServer(root string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			fileRequestsDenied.WithLabelValues("method_not_allowed").Inc()
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path
		if isPathTraversal(path) {
			logger.Warn().Str("path", path).Msg("traversal sequence denied")
			fileRequestsDenied.WithLabelValues("path_escape").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if path == "" || strings.HasSuffix(path, "/") {
			fileRequestsDenied.WithLabelValues("directory_listing").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		absRoot, err := filepath.Abs(root)
		if err != nil {
			fileRequestsDenied.WithLabelValues("internal_error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		fullPath := filepath.Join(absRoot, path)
		realPath, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				fileRequestsDenied.WithLabelValues("not_found").Inc()
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			fileRequestsDenied.WithLabelValues("internal_error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		realRoot, err := filepath.EvalSymlinks(absRoot)
		if err != nil {
			fileRequestsDenied.WithLabelValues("internal_error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Containment check protects against symlink escapes.
		relPath, err := filepath.Rel(realRoot, realPath)
		if err != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
			logger.Warn().Str("path", path).Str("resolved", realPath).Msg("path escapes serving root")
			fileRequestsDenied.WithLabelValues("path_escape").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// #nosec G304 -- realPath is validated to reside inside root
		f, err := os.Open(realPath)
		if err != nil {
			fileRequestsDenied.WithLabelValues("internal_error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			fileRequestsDenied.WithLabelValues("directory_listing").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		fileRequestsAllowed.Inc()
		// ServeContent handles Range requests for video scrubbing.
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// isPathTraversal performs robust checks against path traversal
// attempts: multiple decode passes for double encodings, Unicode
// normalization, and NUL byte detection.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	for _, pat := range []string{"..", `..\`, "%00", "%c0%ae", "%e0%80%ae"} {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	if strings.ContainsRune(decoded, 0x00) {
		return true
	}

	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..")
}
