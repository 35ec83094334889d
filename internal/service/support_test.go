package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/service"
)

func TestSupportPostAndHistory(t *testing.T) {
	chats := &fakeChatStore{}
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0))
	svc := service.NewSupportService(chats, ledger, zap.NewNop())

	msg, err := svc.Post(context.Background(), "u1", &domain.ChatPostRequest{Text: "  my transfer is stuck  "})
	if err != nil {
		t.Fatalf("expected post to succeed, got %v", err)
	}
	if msg.Sender != service.SenderUser || msg.Text != "my transfer is stuck" {
		t.Errorf("unexpected message: %+v", msg)
	}

	if _, err := svc.Reply(context.Background(), "u1", &domain.ChatPostRequest{Text: "Looking into it now."}); err != nil {
		t.Fatalf("expected reply to succeed, got %v", err)
	}

	history, err := svc.History(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Sender != service.SenderUser || history[1].Sender != service.SenderSupport {
		t.Errorf("messages out of order: %+v", history)
	}
}

func TestSupportPost_EmptyTextRejected(t *testing.T) {
	svc := service.NewSupportService(&fakeChatStore{}, newFakeLedger(), zap.NewNop())

	_, err := svc.Post(context.Background(), "u1", &domain.ChatPostRequest{Text: "   "})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSupportPost_OversizedTextRejected(t *testing.T) {
	svc := service.NewSupportService(&fakeChatStore{}, newFakeLedger(), zap.NewNop())

	_, err := svc.Post(context.Background(), "u1", &domain.ChatPostRequest{Text: strings.Repeat("a", 2001)})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSupportReply_UnknownUserRejected(t *testing.T) {
	svc := service.NewSupportService(&fakeChatStore{}, newFakeLedger(), zap.NewNop())

	_, err := svc.Reply(context.Background(), "ghost", &domain.ChatPostRequest{Text: "hello"})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
