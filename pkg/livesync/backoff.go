package livesync

import (
	"math/rand"
	"time"
)

const (
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxJitter = 500 * time.Millisecond

	// DefaultMaxAttempts é o teto de reconexões automáticas.
	// Depois disso o cliente fica degradado (REST continua funcionando)
	// até um novo Connect explícito.
	DefaultMaxAttempts = 5
)

// Delay calcula o atraso da tentativa n como base × 2^(n−1) mais um
// jitter aleatório em [0, maxJitter). Função pura exceto pelo jitter,
// para ser testável sem socket.
func Delay(attempt int, base, maxJitter time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := base << uint(attempt-1)

	if maxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(maxJitter)))
	}

	return d
}
