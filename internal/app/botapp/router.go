package botapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bot_gatekeeper/internal/domain/model"
	tginfra "bot_gatekeeper/internal/infra/telegram"
	exemptionsvc "bot_gatekeeper/internal/services/exemptions"
)

const accessDeniedReply = "You need ban or kick permissions to use this command."

func (a *App) handleJoin(ctx context.Context, upd tginfra.JoinUpdate) {
	event := model.JoinEvent{
		ChatID:           upd.ChatID,
		ChatTitle:        upd.ChatTitle,
		UserID:           upd.UserID,
		Username:         upd.Username,
		IsBot:            upd.IsBot,
		AccountCreatedAt: tginfra.EstimateCreationTime(upd.UserID),
		JoinedAt:         upd.JoinedAt,
	}

	// Joins burst during raids; each one is processed independently.
	go func() {
		result, err := a.moderationService.HandleJoin(ctx, event)
		if err != nil {
			a.logger.Error("handle join failed",
				zap.Error(err),
				zap.Int64("chat_id", event.ChatID),
				zap.Int64("user_id", event.UserID),
			)
			return
		}
		if result.Decision.RequiresAction() && !result.Duplicate {
			a.logger.Info("member moderated",
				zap.String("decision", string(result.Decision)),
				zap.Int64("chat_id", event.ChatID),
				zap.Int64("user_id", event.UserID),
				zap.Bool("notified", result.Notified),
				zap.Bool("action_succeeded", result.ActionSucceeded),
				zap.Bool("audit_emitted", result.AuditEmitted),
			)
		}
	}()
}

func (a *App) handleCommand(ctx context.Context, upd tginfra.CommandUpdate) {
	switch upd.Command {
	case "start", "help":
		a.sendText(ctx, upd.ChatID,
			"Gatekeeper moderates new members by account age.\n"+
				"/exempt add <user_id> — exempt a member\n"+
				"/exempt remove <user_id> — drop an exemption\n"+
				"/exempt list — show exemptions\n"+
				"/setlog [chat_id] — set the audit log chat\n"+
				"/thresholds — show configured cutoffs")
	case "exempt":
		a.handleExemptCommand(ctx, upd)
	case "setlog":
		a.handleSetLogCommand(ctx, upd)
	case "thresholds":
		a.sendText(ctx, upd.ChatID, fmt.Sprintf(
			"Ban accounts younger than %dd, kick younger than %dd.",
			a.cfg.Moderation.BanUnderDays, a.cfg.Moderation.KickUnderDays))
	default:
		a.sendText(ctx, upd.ChatID, "Unknown command. Use /help")
	}
}

func (a *App) handleExemptCommand(ctx context.Context, upd tginfra.CommandUpdate) {
	if !a.actorCanCurate(ctx, upd.ChatID, upd.UserID) {
		a.sendText(ctx, upd.ChatID, accessDeniedReply)
		return
	}

	fields := strings.Fields(upd.Args)
	if len(fields) == 0 {
		a.sendText(ctx, upd.ChatID, "Usage: /exempt add|remove|list [user_id]")
		return
	}

	switch fields[0] {
	case "add":
		userID, ok := parseUserIDArg(fields)
		if !ok {
			a.sendText(ctx, upd.ChatID, "Usage: /exempt add <user_id>")
			return
		}
		if err := a.exemptionService.Add(ctx, upd.ChatID, userID, upd.UserID); err != nil {
			a.logger.Warn("add exemption", zap.Error(err), zap.Int64("chat_id", upd.ChatID))
			a.sendText(ctx, upd.ChatID, "Failed to add exemption.")
			return
		}
		a.sendText(ctx, upd.ChatID, fmt.Sprintf("Added %d to the exemption list.", userID))

	case "remove":
		userID, ok := parseUserIDArg(fields)
		if !ok {
			a.sendText(ctx, upd.ChatID, "Usage: /exempt remove <user_id>")
			return
		}
		err := a.exemptionService.Remove(ctx, upd.ChatID, userID)
		if errors.Is(err, exemptionsvc.ErrNotFound) {
			a.sendText(ctx, upd.ChatID, "This ID is not on the exemption list.")
			return
		}
		if err != nil {
			a.logger.Warn("remove exemption", zap.Error(err), zap.Int64("chat_id", upd.ChatID))
			a.sendText(ctx, upd.ChatID, "Failed to remove exemption.")
			return
		}
		a.sendText(ctx, upd.ChatID, fmt.Sprintf("Removed %d from the exemption list.", userID))

	case "list":
		entries, err := a.exemptionService.List(ctx, upd.ChatID)
		if err != nil {
			a.logger.Warn("list exemptions", zap.Error(err), zap.Int64("chat_id", upd.ChatID))
			a.sendText(ctx, upd.ChatID, "Failed to list exemptions.")
			return
		}
		if len(entries) == 0 {
			a.sendText(ctx, upd.ChatID, "The exemption list is empty.")
			return
		}
		ids := make([]string, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, strconv.FormatInt(entry.UserID, 10))
		}
		a.sendText(ctx, upd.ChatID, "Exempt IDs: "+strings.Join(ids, ", "))

	default:
		a.sendText(ctx, upd.ChatID, "Usage: /exempt add|remove|list [user_id]")
	}
}

func (a *App) handleSetLogCommand(ctx context.Context, upd tginfra.CommandUpdate) {
	if !a.actorCanCurate(ctx, upd.ChatID, upd.UserID) {
		a.sendText(ctx, upd.ChatID, accessDeniedReply)
		return
	}

	logChatID := upd.ChatID
	if arg := strings.TrimSpace(upd.Args); arg != "" {
		parsed, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || parsed == 0 {
			a.sendText(ctx, upd.ChatID, "Usage: /setlog [chat_id]")
			return
		}
		logChatID = parsed
	}

	if err := a.auditService.SetDestination(ctx, upd.ChatID, logChatID, upd.UserID); err != nil {
		a.logger.Warn("set log destination", zap.Error(err), zap.Int64("chat_id", upd.ChatID))
		a.sendText(ctx, upd.ChatID, "Failed to set the log chat.")
		return
	}
	a.sendText(ctx, upd.ChatID, fmt.Sprintf("Audit log chat set to %d.", logChatID))
}

func (a *App) actorCanCurate(ctx context.Context, chatID, actorTGID int64) bool {
	caps, err := a.bot.MemberCapabilities(ctx, chatID, actorTGID)
	if err != nil {
		a.logger.Warn("resolve actor capabilities",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int64("tg_id", actorTGID),
		)
		// Capabilities unknown: fall back to the owner override only.
		caps = nil
	}
	return a.accessService.CanCurate(actorTGID, caps)
}

func (a *App) sendText(ctx context.Context, chatID int64, text string) {
	if err := a.bot.SendText(ctx, chatID, text); err != nil {
		a.logger.Warn("send reply", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func parseUserIDArg(fields []string) (int64, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	userID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}
