package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"dance-storefront/internal/backend"
	"dance-storefront/internal/config"
	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

func newMediaService(t *testing.T, backendHost string) *MediaService {
	t.Helper()

	svc, err := NewMediaService(MediaConfig{
		Hosts:       []string{"*.strapi.app", "res.cloudinary.com"},
		BackendHost: backendHost,
		CacheDir:    t.TempDir(),
		MaxWidth:    800,
	})
	require.NoError(t, err)
	return svc
}

func TestMediaAllowed(t *testing.T) {
	t.Parallel()

	svc := newMediaService(t, "cms.local")

	cases := map[string]bool{
		"https://res.cloudinary.com/demo/image.jpg":     true,
		"https://bold-star.media.strapi.app/a.png":      true,
		"https://strapi.app/a.png":                      false,
		"https://evilstrapi.app/a.png":                  false,
		"http://res.cloudinary.com/demo/image.jpg":      false,
		"http://cms.local:1337/uploads/a.jpg":           true,
		"https://cms.local/uploads/a.jpg":               true,
		"ftp://res.cloudinary.com/a.jpg":                false,
		"https://user@res.cloudinary.com/a.jpg":         false,
		"/uploads/a.jpg":                                false,
		"https://res.cloudinary.com.evil.example/a.jpg": false,
	}

	for raw, want := range cases {
		require.Equal(t, want, svc.Allowed(raw), raw)
	}
}

func TestClampWidth(t *testing.T) {
	t.Parallel()

	svc := newMediaService(t, "")
	require.Equal(t, 800, svc.ClampWidth(0))
	require.Equal(t, 800, svc.ClampWidth(5000))
	require.Equal(t, 800, svc.ClampWidth(700))
	require.Equal(t, 64, svc.ClampWidth(3))
	require.Equal(t, 384, svc.ClampWidth(320))
	require.Equal(t, 640, svc.ClampWidth(640))
}

func TestMediaAllowsDefaultBackendUploads(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef-test")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("MEDIA_HOSTS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	svc, err := NewMediaService(MediaConfig{
		Hosts:       cfg.MediaHosts,
		BackendHost: cfg.BackendHost(),
		CacheDir:    t.TempDir(),
		MaxWidth:    cfg.MediaMaxWidth,
	})
	require.NoError(t, err)

	thumb := backend.ResolveMediaURL(cfg.BackendURL, "/uploads/salsa.jpg")
	require.Equal(t, "http://localhost:1337/uploads/salsa.jpg", thumb)
	require.True(t, svc.Allowed(thumb))
	require.False(t, svc.Allowed("http://evil.example/uploads/a.jpg"))
}

func TestMediaBackendHostWithPort(t *testing.T) {
	t.Parallel()

	svc := newMediaService(t, "CMS.local:1337")
	require.True(t, svc.Allowed("http://cms.local:1337/uploads/a.jpg"))
	require.True(t, svc.Allowed("https://cms.local/uploads/a.jpg"))
	require.False(t, svc.Allowed("http://other.local:1337/uploads/a.jpg"))
}

func TestResizedFetchesScalesAndCaches(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		img := image.NewRGBA(image.Rect(0, 0, 400, 200))
		for x := 0; x < 400; x++ {
			for y := 0; y < 200; y++ {
				img.Set(x, y, color.RGBA{R: 200, A: 255})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, img)
	}))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	svc := newMediaService(t, parsed.Hostname())

	source := server.URL + "/uploads/salsa.png"
	for i := 0; i < 2; i++ {
		file, info, err := svc.Resized(context.Background(), source, 100)
		require.NoError(t, err)
		require.Positive(t, info.Size())

		cfg, err := jpeg.DecodeConfig(file)
		require.NoError(t, err)
		require.Equal(t, 128, cfg.Width)
		require.Equal(t, 64, cfg.Height)
		require.NoError(t, file.Close())
	}

	require.Equal(t, int32(1), hits.Load())
}

func TestResizedRejections(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte("not an image "), 10))
	}))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	svc := newMediaService(t, parsed.Hostname())

	_, _, err = svc.Resized(context.Background(), "https://example.com/a.jpg", 100)
	require.ErrorIs(t, err, model.ErrMediaHostNotAllowed)

	_, _, err = svc.Resized(context.Background(), server.URL+"/doc.txt", 100)
	require.ErrorIs(t, err, model.ErrUnsupportedMedia)

	_, _, err = svc.Resized(context.Background(), server.URL+"/missing.jpg", 100)
	require.Error(t, err)
	require.Equal(t, apierror.KindStatus, apierror.KindOf(err))
}

func servePNG(t *testing.T, width, height int) http.HandlerFunc {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height))))
	data := buf.Bytes()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}
}

func TestResizedRejectsRedirectOffAllowlist(t *testing.T) {
	t.Parallel()

	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		servePNG(t, 10, 10)(w, r)
	}))
	defer internal.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/bounce.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/secret.png", http.StatusFound)
	})
	mux.HandleFunc("/loop.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop.png", http.StatusFound)
	})
	mux.HandleFunc("/moved.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final.png", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final.png", servePNG(t, 40, 20))
	allowed := httptest.NewServer(mux)
	defer allowed.Close()

	// internal listens on 127.0.0.1; only the "localhost" name is allowlisted.
	source := strings.Replace(allowed.URL, "127.0.0.1", "localhost", 1)
	svc := newMediaService(t, "localhost")
	require.False(t, svc.Allowed(internal.URL+"/secret.png"))

	_, _, err := svc.Resized(context.Background(), source+"/bounce.png", 64)
	require.ErrorIs(t, err, model.ErrMediaHostNotAllowed)
	require.Equal(t, int32(0), internalHits.Load())

	_, _, err = svc.Resized(context.Background(), source+"/loop.png", 64)
	require.Error(t, err)
	require.Equal(t, apierror.KindTransport, apierror.KindOf(err))

	file, _, err := svc.Resized(context.Background(), source+"/moved.png", 64)
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

func TestResizedRejectsOversizedDimensions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(servePNG(t, 200, 200))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	svc := newMediaService(t, parsed.Hostname())
	svc.maxPixels = 100 * 100

	_, _, err = svc.Resized(context.Background(), server.URL+"/huge.png", 64)
	require.Error(t, err)

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "MEDIA_TOO_LARGE", apiErr.Code)

	entries, err := os.ReadDir(svc.cacheDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestResizedEvictsOldestBeyondBudget(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(servePNG(t, 300, 150))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	svc := newMediaService(t, parsed.Hostname())
	svc.cacheMaxBytes = 1

	var last string
	for _, name := range []string{"a", "b", "c"} {
		last = server.URL + "/" + name + ".png"
		file, _, err := svc.Resized(context.Background(), last, 128)
		require.NoError(t, err)
		require.NoError(t, file.Close())
	}

	matches, err := filepath.Glob(filepath.Join(svc.cacheDir, "*.jpg"))
	require.NoError(t, err)
	require.Equal(t, []string{svc.cachePath(last, 128)}, matches)
}
