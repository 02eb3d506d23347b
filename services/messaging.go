package services

import (
	"context"
	"strings"
	"time"

	"homeserve-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMessageLength = 4000

type MessagingService struct {
	db       *gorm.DB
	now      func() time.Time
	registry *Registry
	log      *zap.Logger
}

// NewMessagingService wires chat. registry may be nil, in which case
// nothing is pushed live.
func NewMessagingService(db *gorm.DB, registry *Registry, log *zap.Logger) *MessagingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessagingService{db: db, now: time.Now, registry: registry, log: log}
}

type MessageView struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SendMessage stores a message from p to receiverID. Only clients may open
// a conversation; a worker can reply once the client has written.
func (s *MessagingService) SendMessage(ctx context.Context, p Principal, receiverID uuid.UUID, content string) (*MessageView, error) {
	if err := Authorize(p, CapMessage).Err(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("message content is required")
	}
	if len(content) > maxMessageLength {
		return nil, validationError("message longer than %d characters", maxMessageLength)
	}
	if receiverID == p.ID {
		return nil, validationError("cannot message yourself")
	}

	var msg models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receiver models.User
		err := tx.Where("id = ? AND is_active = ?", receiverID, true).First(&receiver).Error
		if isNotFound(err) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if Role(receiver.Role) == p.Role {
			return validationError("conversations are between a client and a worker")
		}

		clientID, workerID := p.ID, receiver.ID
		if p.Role == RoleWorker {
			clientID, workerID = receiver.ID, p.ID
		}

		var conv models.Conversation
		err = tx.Where("client_id = ? AND worker_id = ?", clientID, workerID).First(&conv).Error
		switch {
		case isNotFound(err):
			if p.Role == RoleWorker {
				return ErrWorkerFirstMessage
			}
			conv = models.Conversation{ClientID: clientID, WorkerID: workerID}
			if err := tx.Omit("Client", "Worker").Create(&conv).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case p.Role == RoleWorker:
			var n int64
			if err := tx.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrWorkerFirstMessage
			}
		}

		now := s.now()
		msg = models.Message{ConversationID: conv.ID, SenderID: p.ID, Content: content, CreatedAt: now}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).
			Updates(map[string]any{"last_message": content, "last_message_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	messagesTotal.Inc()
	view := &MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     p.Name,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	s.push(receiverID, Event{Type: EventNewMessage, Payload: view})
	return view, nil
}

func (s *MessagingService) push(userID uuid.UUID, ev Event) {
	if s.registry == nil {
		return
	}
	conn, ok := s.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := conn.Send(ev); err != nil {
		s.log.Debug("push failed", zap.String("user", userID.String()), zap.Error(err))
	}
}

type ConversationSummary struct {
	ID            uuid.UUID   `json:"id"`
	Other         models.User `json:"-"`
	LastMessage   string      `json:"lastMessage"`
	LastMessageAt *time.Time  `json:"lastMessageAt"`
	Unread        int64       `json:"unread"`
}

// Conversations lists the caller's conversations, most recent first.
func (s *MessagingService) Conversations(ctx context.Context, p Principal) ([]ConversationSummary, error) {
	if err := Authorize(p, CapMessage).Err(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var convs []models.Conversation
	if err := db.Preload("Client").Preload("Worker").
		Where("client_id = ? OR worker_id = ?", p.ID, p.ID).
		Order("last_message_at DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		var unread int64
		if err := db.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", c.ID, p.ID, false).
			Count(&unread).Error; err != nil {
			return nil, err
		}
		other := c.Client
		if c.ClientID == p.ID {
			other = c.Worker
		}
		out = append(out, ConversationSummary{
			ID:            c.ID,
			Other:         other,
			LastMessage:   c.LastMessage,
			LastMessageAt: c.LastMessageAt,
			Unread:        unread,
		})
	}
	return out, nil
}

// Messages returns a conversation's history and marks the other side's
// messages as read.
func (s *MessagingService) Messages(ctx context.Context, p Principal, conversationID uuid.UUID) ([]models.Message, error) {
	if err := Authorize(p, CapMessage).Err(); err != nil {
		return nil, err
	}
	var msgs []models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		err := tx.Where("id = ? AND (client_id = ? OR worker_id = ?)", conversationID, p.ID, p.ID).First(&conv).Error
		if isNotFound(err) {
			return ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, p.ID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}
		return tx.Where("conversation_id = ?", conv.ID).Order("created_at").Find(&msgs).Error
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
