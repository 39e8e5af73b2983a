package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeRedirect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		target string
		want   string
	}{
		{name: "local path", target: "/watch/salsa", want: "/watch/salsa"},
		{name: "local path with query", target: "/checkout?product=salsa", want: "/checkout?product=salsa"},
		{name: "empty", target: "", want: "/"},
		{name: "absolute url", target: "https://evil.example/", want: "/"},
		{name: "protocol relative", target: "//evil.example/", want: "/"},
		{name: "backslash", target: "/\\evil.example", want: "/"},
		{name: "relative path", target: "watch/salsa", want: "/"},
		{name: "control chars", target: "/watch\n/salsa", want: "/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SafeRedirect(tc.target, "/"))
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/login?redirect=%2Fcheckout%3Fproduct%3Dsalsa", LoginRedirect("/checkout?product=salsa"))
	require.Equal(t, "/login?redirect=%2F", LoginRedirect("https://evil.example"))
}

func TestIsResizableMIME(t *testing.T) {
	t.Parallel()

	require.True(t, IsResizableMIME("image/jpeg"))
	require.True(t, IsResizableMIME("IMAGE/PNG; charset=binary"))
	require.False(t, IsResizableMIME("image/svg+xml"))
	require.False(t, IsResizableMIME("text/html"))
	require.True(t, IsImageMIME("image/svg+xml"))
}
