package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/service/notification"
	pkgworker "github.com/healthmate/api/pkg/worker"
)

// AppointmentNotifier turns published appointment.* events into patient
// notifications. Other event types pass through untouched.
func AppointmentNotifier(notifier notification.Service) pkgworker.EventHook {
	return func(ctx context.Context, event *model.OutboxEvent) error {
		if !strings.HasPrefix(event.EventType, "appointment.") {
			return nil
		}

		var payload model.AppointmentEvent
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.EventType, err)
		}
		return notifier.NotifyAppointment(ctx, event.EventType, payload)
	}
}
