package livesync

import "strings"

const wsPath = "/ws"

// Endpoint resolve a URL do WebSocket: override explícito quando
// informado, senão deriva da URL base da API REST trocando o
// protocolo (http→ws, https→wss) e removendo o sufixo /api.
func Endpoint(override, apiBaseURL string) string {
	if override != "" {
		return override
	}

	if apiBaseURL == "" {
		return wsPath
	}

	u := strings.TrimSuffix(apiBaseURL, "/")
	u = strings.TrimSuffix(u, "/api")

	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	return u + wsPath
}
