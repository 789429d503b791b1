package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher devolve um FetchFunc que refaz a listagem completa em
// GET {apiBaseURL}/appointments com o token da sessão. É a fonte de
// verdade usada nos resyncs do Reconciler. O cliente padrão tem
// timeout: o resync roda no caminho de dispatch e não pode pendurar.
func HTTPFetcher(apiBaseURL, token string, client *http.Client) FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	url := strings.TrimSuffix(apiBaseURL, "/") + "/appointments"

	return func(ctx context.Context) ([]AppointmentRecord, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("livesync: listagem retornou %d", resp.StatusCode)
		}

		var body struct {
			Data  []AppointmentRecord `json:"data"`
			Total int                 `json:"total"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, err
		}

		return body.Data, nil
	}
}
