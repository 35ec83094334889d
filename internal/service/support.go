package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/port"
)

var supportTracer = otel.Tracer("service/support")

// Chat message senders.
const (
	SenderUser    = "user"
	SenderSupport = "support"
)

const maxChatMessageLen = 2000

// SupportService handles the per-user support conversation.
type SupportService struct {
	chats  port.ChatStore
	ledger port.LedgerStore
	logger *zap.Logger
}

// NewSupportService creates a new support service.
func NewSupportService(chats port.ChatStore, ledger port.LedgerStore, logger *zap.Logger) *SupportService {
	return &SupportService{chats: chats, ledger: ledger, logger: logger}
}

// Post appends a message from the user to their conversation.
func (s *SupportService) Post(ctx context.Context, userID string, req *domain.ChatPostRequest) (*domain.ChatMessage, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.Post")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.append(ctx, userID, SenderUser, req.Text)
}

// Reply appends a support agent message to a user's conversation.
// Admin operation.
func (s *SupportService) Reply(ctx context.Context, userID string, req *domain.ChatPostRequest) (*domain.ChatMessage, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.Reply")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	// Verify the conversation belongs to a real user.
	if _, err := s.ledger.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.append(ctx, userID, SenderSupport, req.Text)
}

func (s *SupportService) append(ctx context.Context, userID, sender, text string) (*domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ErrValidation{Field: "text", Message: "message text is required"}
	}
	if len(text) > maxChatMessageLen {
		return nil, &domain.ErrValidation{Field: "text", Message: "message too long"}
	}

	msg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("chat message posted",
		zap.String("user_id", userID),
		zap.String("sender", sender))
	return msg, nil
}

// History returns the conversation in chronological order.
func (s *SupportService) History(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	ctx, span := supportTracer.Start(ctx, "SupportService.History")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.chats.ListMessages(ctx, userID, limit)
}
