package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/channel"
	"github.com/gosuda/randevu/internal/domain"
)

const dedupeTTL = 24 * time.Hour

type InboundInput struct {
	Platform string `path:"platform" doc:"Messaging platform the event came from"`
	Body     channel.Event
}

type InboundResponse struct {
	Status string `json:"status" doc:"ok, ignored or duplicate"`
	Reply  string `json:"reply,omitempty" doc:"Assistant reply when no transport is registered for the platform"`
	Image  []byte `json:"image,omitempty" doc:"Reply attachment when no transport is registered for the platform"`
}

type InboundOutput struct {
	Body InboundResponse
}

func (s *Server) registerWebhookRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "inbound-message",
		Method:      http.MethodPost,
		Path:        "/{platform}",
		Summary:     "Process one inbound channel event",
		Tags:        []string{"Webhooks"},
	}, s.handleInbound)
}

// requireWebhookToken authenticates webhook calls with a shared bearer token.
func (s *Server) requireWebhookToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Channel.WebhookToken)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid webhook token"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleInbound accepts one platform event, resolves the tenant by business
// account, runs the agent, and delivers the reply. Duplicate message IDs are
// acknowledged without reprocessing.
func (s *Server) handleInbound(ctx context.Context, input *InboundInput) (*InboundOutput, error) {
	event := input.Body
	if event.SenderID == "" || event.AccountID == "" {
		return nil, huma.Error400BadRequest("sender_id and account_id are required")
	}
	if strings.TrimSpace(event.Text) == "" {
		return &InboundOutput{Body: InboundResponse{Status: "ignored"}}, nil
	}

	if event.MessageID != "" && s.dedupe != nil {
		key := "dedupe:msg:" + input.Platform + ":" + event.MessageID
		fresh, err := s.dedupe.SetNX(ctx, key, []byte("1"), dedupeTTL)
		if err != nil {
			log.Warn().Err(err).Str("platform", input.Platform).Msg("webhook dedupe check failed")
		} else if !fresh {
			return &InboundOutput{Body: InboundResponse{Status: "duplicate"}}, nil
		}
	}

	tenant, err := s.tenants.GetByChannelAccount(ctx, event.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("no tenant for account")
		}
		log.Error().Err(err).Str("account_id", event.AccountID).Msg("tenant lookup failed")
		return nil, huma.Error500InternalServerError("internal error")
	}

	reply, err := s.responder.HandleMessage(ctx, tenant, event.SenderID, event.Text)
	if err != nil {
		log.Error().Err(err).
			Str("tenant_id", tenant.ID.String()).
			Str("platform", input.Platform).
			Msg("message handling failed")
		return nil, huma.Error500InternalServerError("internal error")
	}

	if sender, ok := s.senders[input.Platform]; ok {
		s.deliver(ctx, sender, event.SenderID, reply.Text, reply.Image)
		return &InboundOutput{Body: InboundResponse{Status: "ok"}}, nil
	}

	// No registered transport: hand the full reply, image included, back to
	// the webhook caller.
	return &InboundOutput{Body: InboundResponse{
		Status: "ok",
		Reply:  reply.Text,
		Image:  reply.Image,
	}}, nil
}

func (s *Server) deliver(ctx context.Context, sender channel.Sender, recipientID, text string, image []byte) {
	if len(image) > 0 {
		if err := sender.SendImage(ctx, recipientID, image, text); err != nil {
			log.Error().Err(err).Str("platform", sender.Platform()).Msg("image delivery failed")
		}
		return
	}
	if text == "" {
		return
	}
	if err := sender.SendText(ctx, recipientID, text); err != nil {
		log.Error().Err(err).Str("platform", sender.Platform()).Msg("text delivery failed")
	}
}
