package livesync_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		override string
		apiBase  string
		want     string
	}{
		{
			name:     "override vence",
			override: "wss://custom.example/socket",
			apiBase:  "https://api.example/api",
			want:     "wss://custom.example/socket",
		},
		{
			name:    "https vira wss",
			apiBase: "https://api.example/api",
			want:    "wss://api.example/ws",
		},
		{
			name:    "http vira ws",
			apiBase: "http://localhost:8080/api",
			want:    "ws://localhost:8080/ws",
		},
		{
			name:    "barra final é tolerada",
			apiBase: "http://localhost:8080/api/",
			want:    "ws://localhost:8080/ws",
		},
		{
			name:    "base sem sufixo /api",
			apiBase: "http://localhost:8080",
			want:    "ws://localhost:8080/ws",
		},
		{
			name: "tudo vazio cai no caminho relativo",
			want: "/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, livesync.Endpoint(tt.override, tt.apiBase))
		})
	}
}
