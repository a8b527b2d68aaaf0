package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded chain takes first entry",
			forwarded:  "1.2.3.4, 5.6.7.8",
			remoteAddr: "9.9.9.9:1234",
			want:       "1.2.3.4",
		},
		{
			name:       "forwarded entry is trimmed",
			forwarded:  "  1.2.3.4  ,5.6.7.8",
			remoteAddr: "9.9.9.9:1234",
			want:       "1.2.3.4",
		},
		{
			name:       "no header falls back to peer address",
			remoteAddr: "10.0.0.7:54321",
			want:       "10.0.0.7",
		},
		{
			name:       "peer address without port is used as is",
			remoteAddr: "10.0.0.7",
			want:       "10.0.0.7",
		},
		{
			name:       "empty forwarded entry falls back to peer",
			forwarded:  " , 5.6.7.8",
			remoteAddr: "10.0.0.7:54321",
			want:       "10.0.0.7",
		},
		{
			name: "nothing available yields placeholder",
			want: Placeholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/free2k", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, FromRequest(r))
		})
	}
}
