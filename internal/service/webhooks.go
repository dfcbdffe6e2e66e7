package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/shopify"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

// WebhookRegistrar subscribes an installed shop to the app's webhook topics
type WebhookRegistrar interface {
	RegisterWebhooks(ctx context.Context, session *domain.Session, callbackURL string) error
}

// InstallWebhookTopics are subscribed right after OAuth. The privacy topics
// are configured in the partner dashboard and cannot be subscribed via the API.
var InstallWebhookTopics = []string{"APP_UNINSTALLED"}

type webhookService struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewWebhookService creates the webhook registrar
func NewWebhookService(client *shopify.Client, logger *zap.Logger) *webhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &webhookService{client: client, logger: logger}
}

// RegisterWebhooks subscribes every install topic to callbackURL. A topic
// that is already subscribed to the same address is not an error.
func (s *webhookService) RegisterWebhooks(ctx context.Context, session *domain.Session, callbackURL string) error {
	for _, topic := range InstallWebhookTopics {
		variables := map[string]interface{}{
			"topic":       topic,
			"callbackUrl": callbackURL,
		}
		resp, err := s.client.Execute(ctx, session, shopify.WebhookSubscriptionCreateMutation, variables)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		var result shopify.WebhookSubscriptionCreateResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return fmt.Errorf("failed to parse webhookSubscriptionCreate response: %w", err)
		}
		if errs := result.WebhookSubscriptionCreate.UserErrors; len(errs) > 0 {
			if strings.Contains(errs[0].Message, "already been taken") {
				s.logger.Debug("Webhook already subscribed", zap.String("shop", session.Shop), zap.String("topic", topic))
				continue
			}
			return &apperrors.ErrUpstream{
				Service: "shopify",
				Err:     fmt.Errorf("webhookSubscriptionCreate %s: %s", topic, errs[0].Message),
			}
		}
		s.logger.Info("Webhook subscribed", zap.String("shop", session.Shop), zap.String("topic", topic))
	}
	return nil
}
