package livesync_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

func frame(t *testing.T, eventType string, data any) []byte {
	t.Helper()

	ev, err := livesync.NewEvent(eventType, data)
	require.NoError(t, err)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

func TestDispatcherRoutesByType(t *testing.T) {
	d := livesync.NewDispatcher()

	var created, updated int
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { created++ })
	d.Subscribe(livesync.EventAppointmentUpdated, func(livesync.Event) { updated++ })

	d.Dispatch(frame(t, livesync.EventAppointmentCreated, map[string]uint{"id": 1}))
	d.Dispatch(frame(t, livesync.EventAppointmentCreated, map[string]uint{"id": 2}))
	d.Dispatch(frame(t, livesync.EventAppointmentUpdated, map[string]uint{"id": 1}))

	assert.Equal(t, 2, created)
	assert.Equal(t, 1, updated)
}

func TestDispatcherInvalidFrameIsDropped(t *testing.T) {
	d := livesync.NewDispatcher()

	var calls int
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { calls++ })

	d.Dispatch([]byte("not json"))
	d.Dispatch([]byte(`{"type":`))

	assert.Zero(t, calls)

	// a conexão continua útil depois do frame ruim
	d.Dispatch(frame(t, livesync.EventAppointmentCreated, map[string]uint{"id": 1}))
	assert.Equal(t, 1, calls)
}

func TestDispatcherUnsubscribeIsIdempotent(t *testing.T) {
	d := livesync.NewDispatcher()

	var calls int
	unsub := d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { calls++ })

	d.Dispatch(frame(t, livesync.EventAppointmentCreated, nil))
	assert.Equal(t, 1, calls)

	unsub()
	unsub() // segunda chamada é no-op

	d.Dispatch(frame(t, livesync.EventAppointmentCreated, nil))
	assert.Equal(t, 1, calls)
}

func TestDispatcherPanicDoesNotStopOthers(t *testing.T) {
	d := livesync.NewDispatcher()

	var survived bool
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { panic("boom") })
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { survived = true })

	d.Dispatch(frame(t, livesync.EventAppointmentCreated, nil))

	assert.True(t, survived)
}

func TestDispatcherOrderFollowsSubscription(t *testing.T) {
	d := livesync.NewDispatcher()

	var order []int
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { order = append(order, 1) })
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { order = append(order, 2) })
	d.Subscribe(livesync.EventAppointmentCreated, func(livesync.Event) { order = append(order, 3) })

	d.Dispatch(frame(t, livesync.EventAppointmentCreated, nil))

	assert.Equal(t, []int{1, 2, 3}, order)
}
