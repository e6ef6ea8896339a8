package handlers

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tat-monitor/internal/api/dto"
	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/service"
	"github.com/spec-kit/tat-monitor/internal/worker"
	apperrors "github.com/spec-kit/tat-monitor/pkg/util/errorutil"
)

// MonitorHandler serves the UI-layer contract: grouped snapshots, summary,
// agent rollups, the disposition write entry point, export, and the manual
// poll trigger.
type MonitorHandler struct {
	monitor   *service.MonitorService
	analytics *service.AnalyticsService
	poller    *worker.Poller
}

// NewMonitorHandler constructs handler.
func NewMonitorHandler(monitor *service.MonitorService, analytics *service.AnalyticsService, poller *worker.Poller) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, analytics: analytics, poller: poller}
}

// GroupedTickets GET /monitor/tickets/grouped.
func (h *MonitorHandler) GroupedTickets(c *fiber.Ctx) error {
	grouped, err := h.monitor.GroupedSnapshots(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": groupedResponse(grouped)})
}

// Summary GET /monitor/summary.
func (h *MonitorHandler) Summary(c *fiber.Ctx) error {
	pending, err := h.monitor.PendingSummary(c.UserContext())
	if err != nil {
		return err
	}
	summary, err := h.analytics.Summary(c.UserContext(), pending)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SummaryResponse{
		Pending:    summary.Pending,
		Historical: summary.Historical,
		Agents:     summary.Agents,
	}})
}

// AgentStats GET /monitor/agents/:agent.
func (h *MonitorHandler) AgentStats(c *fiber.Ctx) error {
	agent := strings.TrimSpace(c.Params("agent"))
	if agent == "" {
		return apperrors.NewValidationError("agent required", nil)
	}
	rollup, err := h.analytics.AgentStats(c.UserContext(), agent)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rollup})
}

// AllAgentStats GET /monitor/agents.
func (h *MonitorHandler) AllAgentStats(c *fiber.Ctx) error {
	rollups, err := h.analytics.AllAgentStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rollups})
}

// RecordDisposition POST /monitor/dispositions.
func (h *MonitorHandler) RecordDisposition(c *fiber.Ctx) error {
	var req dto.RecordDispositionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TicketID) == "" || strings.TrimSpace(req.DispositionType) == "" {
		return apperrors.NewValidationError("ticket_id and disposition_type required", nil)
	}
	if err := h.analytics.RecordDisposition(c.UserContext(), req.TicketID, req.DispositionType); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Dispositions GET /monitor/dispositions lists recent disposition records,
// from the archive when configured, else the in-store log.
func (h *MonitorHandler) Dispositions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	records, err := h.analytics.ArchivedDispositions(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": records})
}

// Export GET /monitor/export streams the disposition log plus agent
// rollups as CSV.
func (h *MonitorHandler) Export(c *fiber.Ctx) error {
	rows, err := h.analytics.ExportRows(c.UserContext())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, row := range rows {
		if len(row) == 0 {
			// Spacer between the disposition block and the summary block.
			buf.WriteString("\n")
			continue
		}
		if err := writer.Write(row); err != nil {
			return apperrors.NewInternalError(err)
		}
		writer.Flush()
	}
	if err := writer.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tat-dispositions.csv"`)
	return c.Send(buf.Bytes())
}

// TriggerPoll POST /monitor/poll.
func (h *MonitorHandler) TriggerPoll(c *fiber.Ctx) error {
	started := h.poller.TriggerNow(c.UserContext())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.PollTriggerResponse{Started: started}})
}

func groupedResponse(grouped domain.GroupedSnapshots) dto.GroupedSnapshotsResponse {
	return dto.GroupedSnapshotsResponse{
		Overdue: snapshotResponses(grouped.Overdue),
		DueSoon: snapshotResponses(grouped.DueSoon),
		OnTrack: snapshotResponses(grouped.OnTrack),
	}
}

func snapshotResponses(snapshots []domain.Snapshot) []dto.SnapshotResponse {
	items := make([]dto.SnapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		items = append(items, dto.SnapshotResponse{
			TicketID:        snapshot.TicketID,
			Subject:         snapshot.Subject,
			Status:          snapshot.Status,
			SubstatusLabel:  snapshot.SubstatusLabel,
			AssignedTo:      snapshot.AssignedTo,
			AssignedAt:      snapshot.AssignedAt,
			SLACategory:     string(snapshot.SLACategory),
			SLAHours:        snapshot.SLAHours,
			ElapsedHours:    snapshot.ElapsedHours,
			RemainingHours:  snapshot.RemainingHours,
			Urgency:         string(snapshot.Urgency),
			EscalationCount: snapshot.EscalationCount,
			LastEscalatedAt: snapshot.LastEscalatedAt,
			ExternalURL:     snapshot.ExternalURL,
		})
	}
	return items
}
