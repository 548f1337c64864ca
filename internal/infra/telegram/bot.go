package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bot_gatekeeper/internal/domain/enums"
	"bot_gatekeeper/internal/domain/model"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

type JoinUpdate struct {
	ChatID    int64
	ChatTitle string
	UserID    int64
	Username  string
	IsBot     bool
	JoinedAt  time.Time
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
}

type Handlers struct {
	OnJoin    func(context.Context, JoinUpdate)
	OnCommand func(context.Context, CommandUpdate)
}

func NewBot(token string, pollTimeout int) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	// The client timeout must exceed the long-poll timeout, and it caps
	// every API call so none can hang past it.
	client := &http.Client{Timeout: time.Duration(pollTimeout+10) * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(strings.TrimSpace(token), tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{api: api, pollTimeout: pollTimeout}, nil
}

// await runs one API call and returns early when the context expires.
// The abandoned call is still bounded by the HTTP client timeout.
func await(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			message := update.Message
			if message == nil {
				continue
			}

			if len(message.NewChatMembers) > 0 && handlers.OnJoin != nil {
				joinedAt := time.Unix(int64(message.Date), 0).UTC()
				for _, member := range message.NewChatMembers {
					handlers.OnJoin(ctx, JoinUpdate{
						ChatID:    message.Chat.ID,
						ChatTitle: message.Chat.Title,
						UserID:    member.ID,
						Username:  member.UserName,
						IsBot:     member.IsBot,
						JoinedAt:  joinedAt,
					})
				}
				continue
			}

			if message.IsCommand() && message.From != nil && handlers.OnCommand != nil {
				handlers.OnCommand(ctx, CommandUpdate{
					ChatID:   message.Chat.ID,
					UserID:   message.From.ID,
					Username: message.From.UserName,
					Command:  message.Command(),
					Args:     message.CommandArguments(),
				})
			}
		}
	}
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	err := await(ctx, func() error {
		_, err := b.api.Send(msg)
		return err
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// NotifyRemoval messages the member directly before removal. Fails when
// the member has never started the bot or blocks direct messages.
func (b *Bot) NotifyRemoval(ctx context.Context, userID int64, chatTitle string, decision enums.Decision, reason string) error {
	verb := "kicked from"
	if decision == enums.DecisionBan {
		verb = "banned from"
	}
	text := fmt.Sprintf("You were %s %s.\nReason: %s", verb, chatTitle, reason)
	return b.SendText(ctx, userID, text)
}

// RemoveMember executes the decision. A ban is permanent; a kick is a
// ban followed by an immediate unban so the member may rejoin. A member
// who is already gone counts as removed.
func (b *Bot) RemoveMember(ctx context.Context, chatID, userID int64, decision enums.Decision, reason string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if !decision.RequiresAction() {
		return fmt.Errorf("decision %s requires no removal", decision)
	}

	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	}
	err := await(ctx, func() error {
		_, err := b.api.Request(ban)
		return err
	})
	if err != nil {
		if isAlreadyAbsent(err) {
			return nil
		}
		return fmt.Errorf("ban chat member: %w", err)
	}

	if decision == enums.DecisionKick {
		unban := tgbotapi.UnbanChatMemberConfig{
			ChatMemberConfig: tgbotapi.ChatMemberConfig{
				ChatID: chatID,
				UserID: userID,
			},
			OnlyIfBanned: true,
		}
		err := await(ctx, func() error {
			_, err := b.api.Request(unban)
			return err
		})
		if err != nil {
			return fmt.Errorf("unban after kick: %w", err)
		}
	}

	_ = reason
	return nil
}

// SendAudit posts one outcome record to the configured log chat.
func (b *Bot) SendAudit(ctx context.Context, logChatID int64, record model.AuditRecord) error {
	title := "Member Kicked"
	if record.Decision == enums.DecisionBan {
		title = "Member Banned"
	}

	who := fmt.Sprintf("ID: %d", record.UserID)
	if record.Username != "" {
		who = fmt.Sprintf("@%s (ID: %d)", record.Username, record.UserID)
	}

	text := fmt.Sprintf("%s\n%s\nReason: %s\nNotified: %v | Action OK: %v",
		title, who, record.Reason, record.Notified, record.ActionSucceeded)
	return b.SendText(ctx, logChatID, text)
}

// MemberCapabilities resolves the moderation capabilities an actor holds
// in a chat. Telegram exposes a single restrict right covering both ban
// and kick; the chat creator holds everything.
func (b *Bot) MemberCapabilities(ctx context.Context, chatID, userID int64) ([]enums.Capability, error) {
	if b == nil || b.api == nil {
		return nil, fmt.Errorf("telegram bot is not initialized")
	}

	var member tgbotapi.ChatMember
	err := await(ctx, func() error {
		var err error
		member, err = b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: chatID,
				UserID: userID,
			},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get chat member: %w", err)
	}

	if member.IsCreator() {
		return []enums.Capability{enums.CapabilityBanMembers, enums.CapabilityKickMembers}, nil
	}
	if member.IsAdministrator() && member.CanRestrictMembers {
		return []enums.Capability{enums.CapabilityBanMembers, enums.CapabilityKickMembers}, nil
	}

	return nil, nil
}

func isAlreadyAbsent(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToUpper(err.Error())
	return strings.Contains(text, "USER_NOT_PARTICIPANT") ||
		strings.Contains(text, "PARTICIPANT_ID_INVALID") ||
		strings.Contains(text, "USER NOT FOUND")
}
