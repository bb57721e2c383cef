package service

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"bnkchallenge/internal/modules/notify/domain"
	notifyout "bnkchallenge/internal/modules/notify/port/out"
	apperrors "bnkchallenge/internal/platform/errors"
	"bnkchallenge/internal/platform/logging"
)

type NotifyService struct {
	sender notifyout.Sender
	logger hclog.Logger
}

func NewNotifyService(sender notifyout.Sender, logger hclog.Logger) *NotifyService {
	return &NotifyService{sender: sender, logger: logging.OrDiscard(logger).Named("notify")}
}

func (s *NotifyService) Send(ctx context.Context, token, title, body string) (domain.Notification, domain.Receipt, error) {
	n, err := domain.Direct(token, title, body)
	if err != nil {
		return domain.Notification{}, domain.Receipt{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	receipt, err := s.sender.Send(ctx, n)
	if err != nil {
		return n, receipt, fmt.Errorf("send notification: %w", err)
	}
	s.logger.Info("notification sent", "status", receipt.Status)
	return n, receipt, nil
}

func (s *NotifyService) Broadcast(ctx context.Context, title, body string) (domain.Notification, domain.Receipt, error) {
	n := domain.Broadcast(title, body)
	receipt, err := s.sender.Broadcast(ctx, n)
	if err != nil {
		return n, receipt, fmt.Errorf("broadcast notification: %w", err)
	}
	s.logger.Info("broadcast sent", "status", receipt.Status)
	return n, receipt, nil
}
