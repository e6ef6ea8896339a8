package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tat-monitor/internal/config"
	"github.com/spec-kit/tat-monitor/internal/events"
)

// NotificationService is the badge/notification sink adapter. It consumes
// poll-cycle events and forwards the overdue count to the configured
// webhook; rendering is the collaborator's responsibility.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	http       *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPollCycleCompleted, n.handlePollCycleCompleted)
	n.dispatcher.Subscribe(events.EventDispositionRecorded, n.handleDispositionRecorded)
	n.dispatcher.Subscribe(events.EventMonitorDegraded, n.handleMonitorDegraded)
}

func (n *NotificationService) handlePollCycleCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PollCycleCompletedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("PollCycleCompleted",
		zap.Int("overdue", payload.OverdueCount),
		zap.Int("due_soon", payload.DueSoonCount),
		zap.Int("on_track", payload.OnTrackCount),
		zap.Int("processed", payload.Processed),
		zap.Int("skipped", payload.Skipped))
	n.emitBadge(ctx, payload.OverdueCount)
	return nil
}

func (n *NotificationService) handleDispositionRecorded(ctx context.Context, event events.Event) error {
	n.logger.Info("DispositionRecorded", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleMonitorDegraded(ctx context.Context, event events.Event) error {
	n.logger.Warn("MonitorDegraded", zap.Any("payload", event.Payload))
	return nil
}

// emitBadge posts {overdueCount} to the webhook. Without a configured URL
// the emission is stub-logged; delivery failures are never escalated.
func (n *NotificationService) emitBadge(ctx context.Context, overdueCount int) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		n.logger.Debug("badge emission stub", zap.Int("overdue_count", overdueCount))
		return
	}

	body, err := json.Marshal(map[string]int{"overdueCount": overdueCount})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("badge webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		n.logger.Warn("badge webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("badge webhook returned non-success status",
			zap.Int("status", resp.StatusCode))
	}
}
