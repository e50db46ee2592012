package ticket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"support-center/internal/domain/appointment"
	"support-center/internal/pkg/config"
	"support-center/internal/usecase/shared"
)

const (
	eventTicketCreated      = "ticket.created"
	eventTicketStageChanged = "ticket.stage_changed"
)

// KafkaGateway publishes ticket events best-effort: with no brokers
// configured every call is a no-op, and write failures are logged but never
// propagated to the appointment flow.
type KafkaGateway struct {
	writer *kafka.Writer
}

func NewKafkaGateway(cfg config.KafkaConfig) *KafkaGateway {
	if len(cfg.Brokers) == 0 || cfg.TicketTopic == "" {
		return &KafkaGateway{}
	}
	return &KafkaGateway{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.TicketTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

var _ shared.TicketGateway = (*KafkaGateway)(nil)

func (g *KafkaGateway) EmitCreated(ctx context.Context, ticketRef uuid.UUID, a *appointment.Appointment) {
	g.publish(ctx, a.TicketRef(), map[string]any{
		"event":         eventTicketCreated,
		"ticket_ref":    ticketRef,
		"appointment":   a.Reference(),
		"customer_ref":  a.CustomerRef(),
		"priority":      a.Priority(),
		"scheduled_for": a.Slot().Start(),
		"description":   a.Description().String(),
	})
}

func (g *KafkaGateway) SyncStatus(ctx context.Context, a *appointment.Appointment) {
	g.publish(ctx, a.TicketRef(), map[string]any{
		"event":       eventTicketStageChanged,
		"ticket_ref":  a.TicketRef(),
		"appointment": a.Reference(),
		"stage":       a.Status().TicketStage(),
	})
}

func (g *KafkaGateway) publish(ctx context.Context, key uuid.UUID, payload map[string]any) {
	if g.writer == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal ticket event", "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(key.String()), Value: body}
	if err := g.writer.WriteMessages(ctx, msg); err != nil {
		slog.Warn("failed to publish ticket event", "error", err)
	}
}

func (g *KafkaGateway) Close() error {
	if g.writer == nil {
		return nil
	}
	return g.writer.Close()
}
