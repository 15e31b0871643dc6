package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/artel-team/artel/internal/modules/repo"
	"github.com/artel-team/artel/internal/pkg/paging"
	"github.com/artel-team/artel/internal/pkg/ratelimit"
	"github.com/artel-team/artel/internal/realtime"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultMessagesLimit = 50
	MaxMessagesLimit     = 200
	MaxMessageLength     = 4000
	previewLength        = 120
)

type ChatService interface {
	List(ctx context.Context, userID uuid.UUID) ([]ChatView, error)
	Messages(ctx context.Context, userID uuid.UUID, in ListMessagesInput) (*ListMessagesOutput, error)
	Send(ctx context.Context, userID, chatID uuid.UUID, text string) (*model.Message, error)
	Delete(ctx context.Context, userID, chatID uuid.UUID) error
}

type ChatView struct {
	model.Chat
	OtherUser     uuid.UUID `json:"other_user"`
	OtherUserName string    `json:"other_user_name"`
}

type ListMessagesInput struct {
	ChatID uuid.UUID `json:"chat_id"`
	Limit  int       `json:"limit"`
	Cursor string    `json:"cursor"`
}

type ListMessagesOutput struct {
	Items []model.Message `json:"items"`
	// NextCursor points after the last returned message so clients can poll for newer ones.
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

type chatService struct {
	chats    repo.ChatRepo
	profiles repo.ProfileRepo
	limiter  *ratelimit.Keyed
	events   *Events
	log      *zap.Logger
}

func NewChatService(chats repo.ChatRepo, profiles repo.ProfileRepo, limiter *ratelimit.Keyed, events *Events, log *zap.Logger) ChatService {
	return &chatService{chats: chats, profiles: profiles, limiter: limiter, events: events, log: log}
}

func (s *chatService) List(ctx context.Context, userID uuid.UUID) ([]ChatView, error) {
	cs, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	others := make([]uuid.UUID, 0, len(cs))
	for i := range cs {
		others = append(others, cs[i].Other(userID))
	}
	names := make(map[uuid.UUID]string, len(others))
	ps, err := s.profiles.GetMany(ctx, others)
	if err != nil {
		s.log.Warn("load chat counterpart names", zap.Error(err))
	}
	for _, p := range ps {
		if p.FullName != "" {
			names[p.ID] = p.FullName
		}
	}

	out := make([]ChatView, 0, len(cs))
	for i := range cs {
		other := cs[i].Other(userID)
		out = append(out, ChatView{Chat: cs[i], OtherUser: other, OtherUserName: nameOr(names, other)})
	}
	return out, nil
}

// member loads the chat and checks that userID takes part in it.
func (s *chatService) member(ctx context.Context, userID, chatID uuid.UUID) (*model.Chat, error) {
	c, err := s.chats.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *chatService) Messages(ctx context.Context, userID uuid.UUID, in ListMessagesInput) (*ListMessagesOutput, error) {
	if _, err := s.member(ctx, userID, in.ChatID); err != nil {
		return nil, err
	}
	switch {
	case in.Limit <= 0:
		in.Limit = DefaultMessagesLimit
	case in.Limit > MaxMessagesLimit:
		in.Limit = MaxMessagesLimit
	}

	var afterT time.Time
	var afterID uuid.UUID
	if in.Cursor != "" {
		var err error
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	// limit+1 tells whether another page follows
	ms, err := s.chats.ListMessages(ctx, in.ChatID, afterT, afterID, in.Limit+1)
	if err != nil {
		return nil, err
	}
	out := &ListMessagesOutput{Items: ms}
	if len(ms) > in.Limit {
		out.HasMore = true
		out.Items = ms[:in.Limit]
	}
	if out.Items == nil {
		out.Items = []model.Message{}
	}
	if n := len(out.Items); n > 0 {
		last := out.Items[n-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	} else {
		out.NextCursor = in.Cursor
	}
	return out, nil
}

func (s *chatService) Send(ctx context.Context, userID, chatID uuid.UUID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message must not be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message too long", ErrInvalidInput)
	}
	c, err := s.member(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if s.limiter != nil && !s.limiter.Allow(userID.String()) {
		return nil, ErrRateLimited
	}

	m := &model.Message{ID: uuid.New(), ChatID: chatID, UserID: userID, Message: text, CreatedAt: time.Now().UTC()}
	if err := s.chats.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	other := c.Other(userID)
	s.events.Changed(ctx, "messages", realtime.Insert, map[string]string{
		"id":      m.ID.String(),
		"chat_id": chatID.String(),
		"user_id": userID.String(),
	}, userID.String(), other.String())
	s.events.Notify(ctx, other.String(), s.senderName(ctx, userID), preview(text), map[string]string{
		"kind":    "message",
		"chat_id": chatID.String(),
	})
	return m, nil
}

func (s *chatService) senderName(ctx context.Context, id uuid.UUID) string {
	p, err := s.profiles.Get(ctx, id)
	if err != nil || p.FullName == "" {
		return UnknownName
	}
	return p.FullName
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	r := []rune(text)
	return string(r[:previewLength]) + "…"
}

func (s *chatService) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	c, err := s.member(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}
	s.events.Changed(ctx, "chats", realtime.Delete, map[string]string{"id": chatID.String()},
		c.UserLow.String(), c.UserHigh.String())
	return nil
}
