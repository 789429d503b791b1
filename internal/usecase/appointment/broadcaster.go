package appointment

import "github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"

// Broadcaster publica eventos para as conexões abertas. O hub de
// tempo real implementa; o broadcast acontece junto com a resposta
// HTTP da mutação, sem confirmação nem retry.
type Broadcaster interface {
	Broadcast(ev livesync.Event)
}
