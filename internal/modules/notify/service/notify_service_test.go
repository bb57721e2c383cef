package service

import (
	"context"
	"errors"
	"testing"

	"bnkchallenge/internal/modules/notify/domain"
	apperrors "bnkchallenge/internal/platform/errors"
)

type fakeSender struct {
	sent      []domain.Notification
	broadcast []domain.Notification
	err       error
}

func (f *fakeSender) Send(_ context.Context, n domain.Notification) (domain.Receipt, error) {
	f.sent = append(f.sent, n)
	return domain.Receipt{Status: 200}, f.err
}

func (f *fakeSender) Broadcast(_ context.Context, n domain.Notification) (domain.Receipt, error) {
	f.broadcast = append(f.broadcast, n)
	return domain.Receipt{Status: 200}, f.err
}

func TestSendRequiresToken(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc := NewNotifyService(sender, nil)
	_, _, err := svc.Send(context.Background(), "", "t", "b")
	if !errors.Is(err, apperrors.ErrInvalidInput) || !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing must be sent")
	}
}

func TestSendFillsDefaults(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc := NewNotifyService(sender, nil)
	n, receipt, err := svc.Send(context.Background(), "fcm-1", "", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.Title != domain.DefaultTitle || receipt.Status != 200 || len(sender.sent) != 1 {
		t.Fatalf("unexpected result: %+v %+v", n, receipt)
	}
}

func TestBroadcastWrapsSenderError(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{err: apperrors.ErrUpstream}
	svc := NewNotifyService(sender, nil)
	if _, _, err := svc.Broadcast(context.Background(), "", ""); !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if len(sender.broadcast) != 1 || sender.broadcast[0].Title != domain.DefaultBroadcastTitle {
		t.Fatalf("unexpected broadcast: %+v", sender.broadcast)
	}
}
