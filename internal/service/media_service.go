package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"dance-storefront/internal/model"
	"dance-storefront/internal/util"
	"dance-storefront/pkg/apierror"
)

const (
	maxSourceImageBytes  = 15 << 20
	maxSourceImagePixels = 40_000_000
	maxMediaRedirects    = 3
	mediaJPEGQuality     = 85
)

// mediaWidthSteps are the only widths ever rendered, so each source image
// has a bounded number of cache entries.
var mediaWidthSteps = []int{64, 128, 256, 384, 640, 960, 1280, 1920}

type MediaConfig struct {
	Hosts         []string
	BackendHost   string
	CacheDir      string
	CacheMaxBytes int64
	MaxWidth      int
	Timeout       time.Duration
}

// MediaService fetches remote images from allowlisted hosts and serves
// resized JPEG copies from a disk cache.
type MediaService struct {
	hosts         []string
	backendHost   string
	cacheDir      string
	cacheMaxBytes int64
	maxWidth      int
	maxPixels     int
	httpClient    *http.Client
}

func NewMediaService(cfg MediaConfig) (*MediaService, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare media cache directory: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hosts := make([]string, 0, len(cfg.Hosts))
	for _, host := range cfg.Hosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			hosts = append(hosts, host)
		}
	}

	s := &MediaService{
		hosts:         hosts,
		backendHost:   normalizeHost(cfg.BackendHost),
		cacheDir:      cfg.CacheDir,
		cacheMaxBytes: cfg.CacheMaxBytes,
		maxWidth:      cfg.MaxWidth,
		maxPixels:     maxSourceImagePixels,
	}
	s.httpClient = &http.Client{Timeout: timeout, CheckRedirect: s.checkRedirect}
	return s, nil
}

// normalizeHost lowercases host and drops any port, matching url.Hostname.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if name, _, err := net.SplitHostPort(host); err == nil {
		return name
	}
	return host
}

// checkRedirect applies the allowlist to every hop.
func (s *MediaService) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > maxMediaRedirects {
		return fmt.Errorf("stopped after %d redirects", maxMediaRedirects)
	}
	if !s.Allowed(req.URL.String()) {
		return fmt.Errorf("redirect to %s: %w", req.URL.Host, model.ErrMediaHostNotAllowed)
	}
	return nil
}

// Allowed reports whether rawURL may be proxied. Hosts match exactly or via
// a "*.suffix" pattern; plain http is only accepted for the backend host.
func (s *MediaService) Allowed(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.User != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		return s.backendHost != "" && host == s.backendHost
	default:
		return false
	}

	if s.backendHost != "" && host == s.backendHost {
		return true
	}

	for _, pattern := range s.hosts {
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}

	return false
}

// ClampWidth snaps a requested width up to the next step, never past the
// configured maximum; zero or unparsable widths mean the maximum.
func (s *MediaService) ClampWidth(width int) int {
	if width <= 0 || width >= s.maxWidth {
		return s.maxWidth
	}
	for _, step := range mediaWidthSteps {
		if step >= width {
			return min(step, s.maxWidth)
		}
	}
	return s.maxWidth
}

// Resized returns an open JPEG no wider than width for rawURL, fetching and
// caching it on first use.
func (s *MediaService) Resized(ctx context.Context, rawURL string, width int) (*os.File, os.FileInfo, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !s.Allowed(rawURL) {
		return nil, nil, apierror.Wrap(apierror.KindInvalid, "FORBIDDEN", "media host not allowed", http.StatusForbidden, model.ErrMediaHostNotAllowed).
			WithDetails(rawURL)
	}

	width = s.ClampWidth(width)
	cachePath := s.cachePath(rawURL, width)

	if file, info, err := openCached(cachePath); err == nil {
		return file, info, nil
	}

	src, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}

	if err := s.writeResized(src, width, cachePath); err != nil {
		return nil, nil, fmt.Errorf("write resized media: %w", err)
	}

	slog.DebugContext(ctx, "media cached", "url", rawURL, "width", width)
	s.prune(ctx, cachePath)
	return openCached(cachePath)
}

func (s *MediaService) fetch(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInvalid, "BAD_REQUEST", "invalid media url", http.StatusBadRequest, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, model.ErrMediaHostNotAllowed) {
			return nil, apierror.Wrap(apierror.KindInvalid, "FORBIDDEN", "media host not allowed", http.StatusForbidden, model.ErrMediaHostNotAllowed).
				WithDetails(rawURL)
		}
		return nil, apierror.Wrap(apierror.KindTransport, "MEDIA_UNAVAILABLE", "could not fetch media", http.StatusBadGateway, err).
			WithDetails(fmt.Sprintf("connection failed: %v. URL: %s", err, rawURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierror.Wrap(apierror.KindStatus, "MEDIA_UNAVAILABLE", "could not fetch media", http.StatusBadGateway,
			fmt.Errorf("upstream status %d", resp.StatusCode)).
			WithDetails(fmt.Sprintf("connection failed: status %d. URL: %s", resp.StatusCode, rawURL))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceImageBytes+1))
	if err != nil {
		return nil, apierror.Wrap(apierror.KindTransport, "MEDIA_UNAVAILABLE", "could not read media", http.StatusBadGateway, err)
	}
	if len(data) > maxSourceImageBytes {
		return nil, apierror.New("MEDIA_TOO_LARGE", "media exceeds size limit", rawURL, http.StatusBadGateway)
	}

	mimeType := util.DetectMIME(data)
	if !util.IsResizableMIME(mimeType) {
		return nil, apierror.Wrap(apierror.KindInvalid, "UNSUPPORTED_TYPE", "unsupported media type", http.StatusUnsupportedMediaType, model.ErrUnsupportedMedia).
			WithDetails(mimeType)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apierror.Wrap(apierror.KindMalformed, "UNSUPPORTED_TYPE", "media could not be decoded", http.StatusUnsupportedMediaType,
			fmt.Errorf("%w: %v", model.ErrUnsupportedMedia, err))
	}
	if header.Width <= 0 || header.Height <= 0 || int64(header.Width)*int64(header.Height) > int64(s.maxPixels) {
		return nil, apierror.New("MEDIA_TOO_LARGE", "media exceeds size limit", fmt.Sprintf("%dx%d", header.Width, header.Height), http.StatusBadGateway)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apierror.Wrap(apierror.KindMalformed, "UNSUPPORTED_TYPE", "media could not be decoded", http.StatusUnsupportedMediaType,
			fmt.Errorf("%w: %v", model.ErrUnsupportedMedia, err))
	}

	return img, nil
}

// writeResized scales src down to width (never up) and stores it as JPEG via
// a temp file rename so readers never observe a partial image.
func (s *MediaService) writeResized(src image.Image, width int, cachePath string) error {
	bounds := src.Bounds()
	targetWidth, targetHeight := bounds.Dx(), bounds.Dy()
	if targetWidth > width {
		scale := float64(width) / float64(targetWidth)
		targetWidth = width
		targetHeight = int(math.Round(float64(bounds.Dy()) * scale))
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	tmp, err := os.CreateTemp(s.cacheDir, "media-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	encodeErr := jpeg.Encode(tmp, dst, &jpeg.Options{Quality: mediaJPEGQuality})
	closeErr := tmp.Close()
	if encodeErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if encodeErr != nil {
			return encodeErr
		}
		return closeErr
	}

	if err := os.Rename(tmpName, cachePath); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *MediaService) cachePath(rawURL string, width int) string {
	hash := sha256.Sum256([]byte(rawURL + "|" + strconv.Itoa(width)))
	return filepath.Join(s.cacheDir, hex.EncodeToString(hash[:])+".jpg")
}

// prune removes the oldest cached images until the cache fits its byte
// budget. keep is never removed.
func (s *MediaService) prune(ctx context.Context, keep string) {
	if s.cacheMaxBytes <= 0 {
		return
	}

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		slog.WarnContext(ctx, "media cache scan failed", "error", err)
		return
	}

	type cached struct {
		path    string
		size    int64
		modTime time.Time
	}

	var total int64
	files := make([]cached, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
		files = append(files, cached{path: filepath.Join(s.cacheDir, entry.Name()), size: info.Size(), modTime: info.ModTime()})
	}
	if total <= s.cacheMaxBytes {
		return
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	removed := 0
	for _, file := range files {
		if total <= s.cacheMaxBytes {
			break
		}
		if file.path == keep {
			continue
		}
		if err := os.Remove(file.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "media cache eviction failed", "path", file.path, "error", err)
			continue
		}
		total -= file.size
		removed++
	}

	slog.DebugContext(ctx, "media cache pruned", "removed", removed, "bytes", total)
}

func openCached(path string) (*os.File, os.FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return file, info, nil
}
