package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		check   func(Status) error
		from    Status
		allowed bool
	}{
		{"confirm de pending", CanConfirm, StatusPending, true},
		{"confirm de confirmed", CanConfirm, StatusConfirmed, false},
		{"confirm de cancelled", CanConfirm, StatusCancelled, false},

		{"cancel de pending", CanCancel, StatusPending, true},
		{"cancel de confirmed", CanCancel, StatusConfirmed, true},
		{"cancel de cancelled", CanCancel, StatusCancelled, false},

		{"reschedule de pending", CanReschedule, StatusPending, true},
		{"reschedule de confirmed", CanReschedule, StatusConfirmed, true},
		{"reschedule de cancelled", CanReschedule, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.from)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, httperr.IsBusiness(err, "invalid_state"))
			}
		})
	}
}

func TestConfirmSetsTimestamp(t *testing.T) {
	now := time.Now()
	ap := &models.Appointment{Status: string(StatusPending)}

	require.NoError(t, Confirm(ap, now))
	assert.Equal(t, string(StatusConfirmed), ap.Status)
	require.NotNil(t, ap.ConfirmedAt)
	assert.Equal(t, now, *ap.ConfirmedAt)
}

func TestCancelFromConfirmed(t *testing.T) {
	now := time.Now()
	ap := &models.Appointment{Status: string(StatusConfirmed)}

	require.NoError(t, Cancel(ap, now))
	assert.Equal(t, string(StatusCancelled), ap.Status)
	require.NotNil(t, ap.CancelledAt)
}

func TestRescheduleResetsToPending(t *testing.T) {
	now := time.Now()
	ap := &models.Appointment{Status: string(StatusPending)}
	require.NoError(t, Confirm(ap, now))

	start := now.Add(48 * time.Hour)
	end := start.Add(30 * time.Minute)

	require.NoError(t, Reschedule(ap, start, end))
	assert.Equal(t, string(StatusPending), ap.Status)
	assert.Nil(t, ap.ConfirmedAt, "remarcar desfaz a confirmação")
	assert.Equal(t, start, ap.StartTime)
	assert.Equal(t, end, ap.EndTime)
}

func TestCancelledIsTerminal(t *testing.T) {
	now := time.Now()
	ap := &models.Appointment{Status: string(StatusCancelled)}

	assert.Error(t, Confirm(ap, now))
	assert.Error(t, Cancel(ap, now))
	assert.Error(t, Reschedule(ap, now.Add(time.Hour), now.Add(2*time.Hour)))
	assert.Equal(t, string(StatusCancelled), ap.Status)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus())
	assert.True(t, IsValid(StatusCompleted))
	assert.False(t, IsValid(Status("unknown")))
}
