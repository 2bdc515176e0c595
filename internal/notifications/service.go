package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"albumtracker/internal/catalog"
	"albumtracker/internal/config"
)

const userAgent = "AlbumTracker-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifySale(ctx context.Context, change catalog.StateChange) error
	NotifyDelivery(ctx context.Context, change catalog.StateChange) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NotificationTimeout()},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySale(ctx context.Context, change catalog.StateChange) error {
	data := payload{
		title:   "AlbumTracker - Album Sold",
		message: fmt.Sprintf("💰 Album #%d paid: %d received from %s", change.ItemID, change.Amount, change.Account),
		tags:    []string{"albumtracker", "sale", "paid"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDelivery(ctx context.Context, change catalog.StateChange) error {
	title := strings.TrimSpace(change.Title)
	if title == "" {
		title = fmt.Sprintf("album #%d", change.ItemID)
	}
	data := payload{
		title:    "AlbumTracker - Delivered",
		message:  fmt.Sprintf("📦 Delivered: %s (%d released)", title, change.Amount),
		tags:     []string{"albumtracker", "delivery", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "AlbumTracker - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"albumtracker", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySale(context.Context, catalog.StateChange) error     { return nil }
func (noopService) NotifyDelivery(context.Context, catalog.StateChange) error { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
