package notifications

import (
	"context"
	"log/slog"

	"albumtracker/internal/catalog"
	"albumtracker/internal/config"
	"albumtracker/internal/logging"
)

const dispatchQueueSize = 64

// Dispatcher queues state changes for a Service.
type Dispatcher struct {
	svc      Service
	sale     bool
	delivery bool
	queue    chan catalog.StateChange
	logger   *slog.Logger
}

// NewDispatcher builds a dispatcher honouring the per-event toggles in cfg.
func NewDispatcher(svc Service, cfg *config.Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		svc:      svc,
		sale:     cfg.Notifications.Sale,
		delivery: cfg.Notifications.Delivery,
		queue:    make(chan catalog.StateChange, dispatchQueueSize),
		logger:   logging.NewComponentLogger(logger, "notifications"),
	}
}

// Append queues change when its event type is enabled. A full queue drops
// the change with a warning.
func (d *Dispatcher) Append(change catalog.StateChange) {
	if !d.wants(change.State) {
		return
	}
	select {
	case d.queue <- change:
	default:
		logging.WarnWithContext(d.logger, "notification queue full, dropping event", "notify_dropped",
			logging.Int64(logging.FieldItemID, change.ItemID),
			logging.String(logging.FieldState, string(change.State)),
			logging.String(logging.FieldErrorHint, "check ntfy reachability"),
		)
	}
}

// Run sends queued notifications until ctx ends.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-d.queue:
			d.send(ctx, change)
		}
	}
}

func (d *Dispatcher) wants(state catalog.State) bool {
	switch state {
	case catalog.StatePaid:
		return d.sale
	case catalog.StateDelivered:
		return d.delivery
	default:
		return false
	}
}

func (d *Dispatcher) send(ctx context.Context, change catalog.StateChange) {
	var err error
	switch change.State {
	case catalog.StatePaid:
		err = d.svc.NotifySale(ctx, change)
	case catalog.StateDelivered:
		err = d.svc.NotifyDelivery(ctx, change)
	}
	if err != nil {
		logging.WarnWithContext(d.logger, "notification failed", "notify_failed",
			logging.Int64(logging.FieldItemID, change.ItemID),
			logging.String(logging.FieldState, string(change.State)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify notifications.ntfy_topic"),
		)
		return
	}
	d.logger.Debug("notification sent",
		logging.Int64(logging.FieldItemID, change.ItemID),
		logging.String(logging.FieldState, string(change.State)),
	)
}
