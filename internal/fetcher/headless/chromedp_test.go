package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCookieDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "www host",
			url:  "https://www.example.com/product/123",
			want: ".example.com",
		},
		{
			name: "bare host",
			url:  "https://example.com/product/123",
			want: ".example.com",
		},
		{
			name: "mixed case host",
			url:  "https://WWW.Example.COM/p/1",
			want: ".example.com",
		},
		{
			name: "host with port",
			url:  "https://www.example.com:8443/p/1",
			want: ".example.com",
		},
		{
			name:    "no host",
			url:     "/relative/path",
			wantErr: true,
		},
		{
			name:    "unparseable",
			url:     "http://[::1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := cookieDomain(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewAppliesDefaultTimeout(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	defer f.Close()
	require.Equal(t, 45*time.Second, f.cfg.NavigationTimeout)
}

func TestCloseIsSafe(t *testing.T) {
	t.Parallel()

	f := New(Config{NavigationTimeout: time.Second})
	f.Close()
}
