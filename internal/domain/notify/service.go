package notify

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/yanqian/farmcast/pkg/errors"
)

// Directory stores device subscriptions.
type Directory interface {
	Register(ctx context.Context, sub Subscription) (Subscription, error)
	List(ctx context.Context) ([]Subscription, error)
}

// Service exposes device registration and broadcast delivery.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (Subscription, error)
	Broadcast(ctx context.Context, message string) Report
}

type service struct {
	directory Directory
	fanout    *Fanout
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the subscriber directory to the fanout.
func NewService(directory Directory, fanout *Fanout, logger *slog.Logger) Service {
	return &service{
		directory: directory,
		fanout:    fanout,
		logger:    logger.With("component", "notify.service"),
		now:       time.Now,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (Subscription, error) {
	req, err := req.Validate()
	if err != nil {
		return Subscription{}, err
	}
	sub, err := s.directory.Register(ctx, Subscription{
		Name:      req.Name,
		Phone:     req.Phone,
		PlayerID:  req.PlayerID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return Subscription{}, apperrors.Wrap(apperrors.CodeStoreError, "failed to register device", err)
	}
	s.logger.Info("device registered", "id", sub.ID, "push", sub.PlayerID != "", "sms", sub.Phone != "")
	return sub, nil
}

// Broadcast loads all subscribers and dispatches message to them. A directory failure is
// logged and reported like a delivery failure.
func (s *service) Broadcast(ctx context.Context, message string) Report {
	subs, err := s.directory.List(ctx)
	if err != nil {
		wrapped := apperrors.Wrap(apperrors.CodeNotificationDelivery, "failed to list subscribers", err)
		s.logger.Warn("subscriber listing failed", "error", wrapped)
		return Report{Failures: []ChannelFailure{{Error: wrapped.Error()}}}
	}
	recipients := RecipientsOf(subs)
	if recipients.Empty() {
		s.logger.Info("no subscribers to notify")
		return Report{}
	}
	report := s.fanout.Dispatch(ctx, recipients, message)
	s.logger.Info("broadcast finished", "calls", report.Calls, "delivered", report.Delivered, "failures", len(report.Failures))
	return report
}
