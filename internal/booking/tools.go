package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/randevu/internal/agent"
	"github.com/gosuda/randevu/internal/domain"
)

// Renderer draws a schedule image for the weekly overview tool. It is an
// external collaborator; when nil the tool degrades to a text listing.
type Renderer interface {
	RenderSchedule(ctx context.Context, title string, bookings []*domain.Booking) ([]byte, error)
}

// RegisterTools wires the reservation tools into a registry. Descriptions
// are what the router sees during selection; parameter schemas are exposed
// only in the execution stage.
func RegisterTools(registry *agent.Registry, svc *Service, renderer Renderer) {
	slotParams := map[string]any{
		"week_offset": map[string]any{"type": "integer", "description": "0 bu hafta, 1 gelecek hafta"},
		"weekday":     map[string]any{"type": "integer", "description": "0 Pazartesi ... 6 Pazar"},
		"slot":        map[string]any{"type": "string", "description": "saat aralığı, örn. \"9-10\" veya \"sabah 9-10\""},
	}

	registry.Register(agent.Tool{
		Name:        "create_booking",
		Description: "Yeni rezervasyon oluşturur (müşteri adı, telefon, gün ve saat aralığı ile)",
		Parameters: map[string]any{
			"type": "object",
			"properties": mergeProps(slotParams, map[string]any{
				"customer_name": map[string]any{"type": "string"},
				"phone":         map[string]any{"type": "string"},
				"price":         map[string]any{"type": "integer", "description": "opsiyonel ücret"},
				"notes":         map[string]any{"type": "string"},
			}),
			"required": []string{"customer_name", "phone", "week_offset", "weekday", "slot"},
		},
		Handler: createBookingHandler(svc),
	})

	registry.Register(agent.Tool{
		Name:        "update_booking",
		Description: "Mevcut bir rezervasyonu başka bir gün veya saate taşır",
		Parameters: map[string]any{
			"type": "object",
			"properties": mergeProps(slotParams, map[string]any{
				"booking_id": map[string]any{"type": "string"},
			}),
			"required": []string{"booking_id", "week_offset", "weekday", "slot"},
		},
		Handler: updateBookingHandler(svc),
	})

	registry.Register(agent.Tool{
		Name:        "cancel_booking",
		Description: "Bir rezervasyonu iptal eder",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"booking_id": map[string]any{"type": "string"},
			},
			"required": []string{"booking_id"},
		},
		Handler: cancelBookingHandler(svc),
	})

	registry.Register(agent.Tool{
		Name:        "list_day_bookings",
		Description: "Belirli bir günün rezervasyonlarını listeler",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"week_offset": slotParams["week_offset"],
				"weekday":     slotParams["weekday"],
			},
			"required": []string{"week_offset", "weekday"},
		},
		Handler: listDayHandler(svc),
	})

	registry.Register(agent.Tool{
		Name:        "send_weekly_schedule",
		Description: "Haftalık rezervasyon takvimini görsel olarak gönderir",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"week_offset": slotParams["week_offset"],
			},
			"required": []string{"week_offset"},
		},
		Handler: weeklyScheduleHandler(svc, renderer),
	})
}

func createBookingHandler(svc *Service) agent.Handler {
	return func(ctx context.Context, tenantID uuid.UUID, args map[string]any) (agent.ToolResult, error) {
		params := CreateParams{
			CustomerName: argString(args, "customer_name"),
			Phone:        argString(args, "phone"),
			WeekOffset:   argInt(args, "week_offset"),
			Weekday:      argInt(args, "weekday"),
			Slot:         argString(args, "slot"),
			Notes:        argString(args, "notes"),
		}
		if price, ok := argIntOK(args, "price"); ok {
			params.Price = &price
		}

		b, err := svc.Create(ctx, tenantID, params)
		if err != nil {
			return agent.ToolResult{}, err
		}

		return agent.ToolResult{Content: fmt.Sprintf(
			"booking created: id=%s customer=%s start=%s end=%s",
			b.ID, params.CustomerName,
			b.StartAt.Format("2006-01-02 15:04"), b.EndAt.Format("2006-01-02 15:04"),
		)}, nil
	}
}

func updateBookingHandler(svc *Service) agent.Handler {
	return func(ctx context.Context, tenantID uuid.UUID, args map[string]any) (agent.ToolResult, error) {
		id, err := argUUID(args, "booking_id")
		if err != nil {
			return agent.ToolResult{}, err
		}

		b, err := svc.Reschedule(ctx, tenantID, id, argInt(args, "week_offset"), argInt(args, "weekday"), argString(args, "slot"))
		if err != nil {
			return agent.ToolResult{}, err
		}

		return agent.ToolResult{Content: fmt.Sprintf(
			"booking %s moved to %s - %s",
			b.ID, b.StartAt.Format("2006-01-02 15:04"), b.EndAt.Format("15:04"),
		)}, nil
	}
}

func cancelBookingHandler(svc *Service) agent.Handler {
	return func(ctx context.Context, tenantID uuid.UUID, args map[string]any) (agent.ToolResult, error) {
		id, err := argUUID(args, "booking_id")
		if err != nil {
			return agent.ToolResult{}, err
		}
		if err := svc.Cancel(ctx, tenantID, id); err != nil {
			return agent.ToolResult{}, err
		}
		return agent.ToolResult{Content: "booking " + id.String() + " cancelled"}, nil
	}
}

func listDayHandler(svc *Service) agent.Handler {
	return func(ctx context.Context, tenantID uuid.UUID, args map[string]any) (agent.ToolResult, error) {
		bookings, err := svc.DayBookings(ctx, tenantID, argInt(args, "week_offset"), argInt(args, "weekday"))
		if err != nil {
			return agent.ToolResult{}, err
		}
		return agent.ToolResult{Content: formatBookings(ctx, svc, tenantID, bookings)}, nil
	}
}

func weeklyScheduleHandler(svc *Service, renderer Renderer) agent.Handler {
	return func(ctx context.Context, tenantID uuid.UUID, args map[string]any) (agent.ToolResult, error) {
		bookings, err := svc.WeekBookings(ctx, tenantID, argInt(args, "week_offset"))
		if err != nil {
			return agent.ToolResult{}, err
		}

		if renderer == nil {
			return agent.ToolResult{Content: formatBookings(ctx, svc, tenantID, bookings)}, nil
		}

		image, err := renderer.RenderSchedule(ctx, "Haftalık Takvim", bookings)
		if err != nil {
			// Rendering is best-effort; fall back to the text listing.
			return agent.ToolResult{Content: formatBookings(ctx, svc, tenantID, bookings)}, nil
		}
		return agent.ToolResult{
			Content: "weekly schedule image attached",
			Image:   image,
		}, nil
	}
}

func formatBookings(ctx context.Context, svc *Service, tenantID uuid.UUID, bookings []*domain.Booking) string {
	if len(bookings) == 0 {
		return "no bookings"
	}

	var sb strings.Builder
	for _, b := range bookings {
		name := "?"
		if c, err := svc.Customer(ctx, tenantID, b.CustomerID); err == nil {
			name = c.Name
		}
		fmt.Fprintf(&sb, "%s %s-%s %s (%s) id=%s\n",
			b.StartAt.Format("2006-01-02"),
			b.StartAt.Format("15:04"), b.EndAt.Format("15:04"),
			name, b.Status, b.ID,
		)
	}
	return sb.String()
}

func mergeProps(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string) int {
	n, _ := argIntOK(args, key)
	return n
}

func argIntOK(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64: // encoding/json decodes numbers as float64
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func argUUID(args map[string]any, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(argString(args, key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid id: %w", key, domain.ErrValidation)
	}
	return id, nil
}
