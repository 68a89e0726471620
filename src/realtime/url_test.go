package realtime

import "testing"

// -----------------------------------------------------------------------------

func TestDeriveStreamURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		token string
		want  string
	}{
		{
			name:  "http base with api suffix",
			base:  "http://monitor.local:8099/api",
			token: "tok",
			want:  "ws://monitor.local:8099/ws?token=tok",
		},
		{
			name:  "https upgrades to wss",
			base:  "https://monitor.example.com/api",
			token: "tok",
			want:  "wss://monitor.example.com/ws?token=tok",
		},
		{
			name:  "bare host gets scheme and path",
			base:  "monitor.local:8099",
			token: "tok",
			want:  "ws://monitor.local:8099/ws?token=tok",
		},
		{
			name:  "trailing slash",
			base:  "http://monitor.local:8099/",
			token: "tok",
			want:  "ws://monitor.local:8099/ws?token=tok",
		},
		{
			name:  "empty token omits query",
			base:  "http://monitor.local:8099/api",
			token: "",
			want:  "ws://monitor.local:8099/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveStreamURL(tt.base, tt.token)
			if err != nil {
				t.Fatalf("DeriveStreamURL(%q): %v", tt.base, err)
			}
			if got != tt.want {
				t.Errorf("DeriveStreamURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}
