package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leavedesk/internal/employee"
	employeeerrors "leavedesk/internal/employee/errors"
	"leavedesk/internal/leave"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/shared/apperror"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the conversational front-end. It only collects input and renders
// replies; every state change goes through the employee and leave services,
// the same ones the admin console calls.
type Bot struct {
	api       *tgbotapi.BotAPI
	sessions  SessionStore
	employees employee.Service
	leaves    leave.Service
	logger    *zap.Logger
}

func New(
	api *tgbotapi.BotAPI,
	sessions SessionStore,
	employees employee.Service,
	leaves leave.Service,
	logger ...*zap.Logger,
) *Bot {
	l := zap.L().Named("bot")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("bot")
	}
	return &Bot{
		api:       api,
		sessions:  sessions,
		employees: employees,
		leaves:    leaves,
		logger:    l,
	}
}

// Run consumes the update stream until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, chatID, msg.From)
		case "cancel":
			if err := b.sessions.Delete(ctx, chatID); err != nil {
				b.logger.Error("delete session failed", zap.Error(err))
			}
			b.sendMainMenu(chatID, "Cancelled.")
		case "inbox":
			b.handleInbox(ctx, chatID)
		case "pending":
			b.handlePending(ctx, chatID)
		case "staff":
			b.handleStaff(ctx, chatID)
		default:
			b.sendText(chatID, "Unknown command. Send /start.")
		}
		return
	}

	session, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("load session failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if session == nil {
		b.sendText(chatID, "Send /start to begin.")
		return
	}

	result := Advance(session, msg.Text, time.Now())
	for _, text := range result.Replies {
		b.sendText(chatID, text)
	}

	switch result.Action {
	case ActionRegister:
		b.finishRegistration(ctx, chatID, session)
	case ActionAskReplacement:
		b.saveSession(ctx, chatID, session)
		b.offerReplacements(ctx, chatID)
	default:
		b.saveSession(ctx, chatID, session)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err == nil {
		if e.Status == employee.StatusApproved {
			b.sendMainMenu(chatID, fmt.Sprintf("Welcome back, %s!", e.FullName))
		} else {
			b.sendText(chatID, "Your registration is still awaiting approval.")
		}
		return
	}
	if !errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
		b.logger.Error("lookup employee failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	session := &Session{Step: StepRegisterName}
	if from != nil && from.FirstName != "" {
		// Prefill nothing; the dialogue asks for the official full name.
		b.logger.Debug("registration started", zap.Int64("chat_id", chatID), zap.String("username", from.UserName))
	}
	b.saveSession(ctx, chatID, session)
	b.sendText(chatID, "Welcome! Let's get you registered. What is your full name?")
}

func (b *Bot) finishRegistration(ctx context.Context, chatID int64, session *Session) {
	resp, err := b.employees.Register(ctx, chatID, session.Draft.FullName, session.Draft.Department)
	if err != nil {
		if errors.Is(err, employeeerrors.ErrChatIDExists) {
			b.sendMainMenu(chatID, "You are already registered.")
		} else {
			b.logger.Error("register failed", zap.Int64("chat_id", chatID), zap.Error(err))
			b.sendText(chatID, "Something went wrong, please try /start again.")
		}
		b.deleteSession(ctx, chatID)
		return
	}

	if resp.Status == employee.StatusApproved {
		b.sendMainMenu(chatID, "You're registered and approved. You can start right away!")
	} else {
		b.sendText(chatID, "Your registration was sent to the managers. You'll be notified once it's approved.")
	}
	b.deleteSession(ctx, chatID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	// Ack first so the client stops the spinner even if handling fails.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Debug("callback ack failed", zap.Error(err))
	}

	switch {
	case data == "menu:new":
		session := &Session{Step: StepLeaveKind}
		b.saveSession(ctx, chatID, session)
		b.sendKindKeyboard(chatID)

	case data == "menu:list":
		b.showOwnRequests(ctx, chatID)

	case data == "menu:balance":
		b.showBalance(ctx, chatID)

	case strings.HasPrefix(data, "kind:"):
		b.pickKind(ctx, chatID, strings.TrimPrefix(data, "kind:"))

	case data == "rep:skip":
		b.submitDraft(ctx, chatID, "")

	case strings.HasPrefix(data, "rep:"):
		b.submitDraft(ctx, chatID, strings.TrimPrefix(data, "rep:"))

	case strings.HasPrefix(data, "repdec:"):
		b.resolveReplacementCallback(ctx, chatID, strings.TrimPrefix(data, "repdec:"))

	case strings.HasPrefix(data, "mgr:"):
		b.managerDecisionCallback(ctx, chatID, strings.TrimPrefix(data, "mgr:"))

	case strings.HasPrefix(data, "usr:"):
		if reply := b.decideRegistration(ctx, chatID, strings.TrimPrefix(data, "usr:")); reply != "" {
			b.sendText(chatID, reply)
		}

	default:
		b.logger.Debug("unknown callback", zap.String("data", data))
	}
}

func (b *Bot) pickKind(ctx context.Context, chatID int64, kind string) {
	if kind != leave.KindDaily && kind != leave.KindHourly {
		return
	}
	session, err := b.sessions.Get(ctx, chatID)
	if err != nil || session == nil || session.Step != StepLeaveKind {
		b.sendText(chatID, "Send /start to begin.")
		return
	}
	session.Draft.Kind = kind
	session.Step = StepLeaveStart
	b.saveSession(ctx, chatID, session)
	b.sendText(chatID, "What is the first day of your leave? (YYYY-MM-DD)")
}

// offerReplacements warns about department overlap and shows the candidate
// buttons. Overlap is advisory only.
func (b *Bot) offerReplacements(ctx context.Context, chatID int64) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil {
		b.logger.Error("lookup employee failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	session, err := b.sessions.Get(ctx, chatID)
	if err != nil || session == nil {
		return
	}

	start, errS := time.Parse(leave.DateLayout, session.Draft.StartDate)
	end, errE := time.Parse(leave.DateLayout, session.Draft.EndDate)
	if errS == nil && errE == nil {
		if overlap, err := b.leaves.HasOverlap(ctx, e.ID, start, end); err == nil && overlap {
			b.sendText(chatID, "Heads up: someone in your department already has approved leave in that period.")
		}
	}

	candidates, err := b.employees.ListReplacementCandidates(ctx, chatID)
	if err != nil {
		b.logger.Error("list replacement candidates failed", zap.Error(err))
		candidates = nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(candidates)+1)
	for _, c := range candidates {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.FullName, "rep:"+c.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("No replacement needed", "rep:skip"),
	))

	msg := tgbotapi.NewMessage(chatID, "Pick a colleague to cover for you, or skip:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) submitDraft(ctx context.Context, chatID int64, replacementID string) {
	session, err := b.sessions.Get(ctx, chatID)
	if err != nil || session == nil || session.Step != StepLeaveReplacement {
		b.sendText(chatID, "Send /start to begin.")
		return
	}

	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil {
		b.logger.Error("lookup employee failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	resp, err := b.leaves.Submit(ctx, leave.SubmitLeaveRequest{
		EmployeeID:    e.ID,
		Kind:          session.Draft.Kind,
		StartDate:     session.Draft.StartDate,
		EndDate:       session.Draft.EndDate,
		StartTime:     session.Draft.StartTime,
		EndTime:       session.Draft.EndTime,
		Reason:        session.Draft.Reason,
		ReplacementID: replacementID,
	})
	if err != nil {
		b.sendText(chatID, apperror.ToHTTP(err).Message)
		return
	}

	b.deleteSession(ctx, chatID)
	if resp.ReplacementStatus == leave.ReplacementPending {
		b.sendMainMenu(chatID, "Request sent! Your replacement has to accept before the managers see it.")
	} else {
		b.sendMainMenu(chatID, "Request sent! The managers have been notified.")
	}
}

// handleInbox lists the requests waiting on this employee's accept/decline.
func (b *Bot) handleInbox(ctx context.Context, chatID int64) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil {
		b.sendText(chatID, "Send /start to begin.")
		return
	}

	requests, err := b.leaves.ListAwaitingReplacement(ctx, e.ID)
	if err != nil {
		b.logger.Error("list awaiting replacement failed", zap.Error(err))
		return
	}
	if len(requests) == 0 {
		b.sendText(chatID, "Nothing is waiting on you.")
		return
	}

	for _, r := range requests {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Cover request: %s", formatRequest(r)))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Accept", "repdec:accept:"+r.ID),
				tgbotapi.NewInlineKeyboardButtonData("Decline", "repdec:decline:"+r.ID),
			),
		)
		b.send(msg)
	}
}

func (b *Bot) resolveReplacementCallback(ctx context.Context, chatID int64, data string) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}
	accept := parts[0] == "accept"

	_, err := b.leaves.ResolveReplacement(ctx, parts[1], accept)
	if err != nil {
		if errors.Is(err, leaveerrors.ErrAlreadyProcessed) {
			b.sendText(chatID, "This request was already handled.")
		} else {
			b.logger.Error("resolve replacement failed", zap.Error(err))
			b.sendText(chatID, "Something went wrong, please try again.")
		}
		return
	}

	if accept {
		b.sendText(chatID, "Thanks! The request moved on to the managers.")
	} else {
		b.sendText(chatID, "Declined. The requester has been notified.")
	}
}

// handlePending shows the manager review queue with inline decisions.
func (b *Bot) handlePending(ctx context.Context, chatID int64) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil || !e.IsManager {
		b.sendText(chatID, "This command is for managers.")
		return
	}

	requests, err := b.leaves.ListPendingReview(ctx)
	if err != nil {
		b.logger.Error("list pending review failed", zap.Error(err))
		return
	}
	if len(requests) == 0 {
		b.sendText(chatID, "No requests are waiting for review.")
		return
	}

	for _, r := range requests {
		msg := tgbotapi.NewMessage(chatID, formatRequest(r))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Approve", "mgr:approve:"+r.ID),
				tgbotapi.NewInlineKeyboardButtonData("Reject", "mgr:reject:"+r.ID),
			),
		)
		b.send(msg)
	}
}

func (b *Bot) managerDecisionCallback(ctx context.Context, chatID int64, data string) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}

	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil || !e.IsManager {
		b.sendText(chatID, "This action is for managers.")
		return
	}

	if parts[0] == "approve" {
		_, err = b.leaves.Approve(ctx, parts[1], e.FullName)
	} else {
		_, err = b.leaves.Reject(ctx, parts[1])
	}
	if err != nil {
		if errors.Is(err, leaveerrors.ErrAlreadyProcessed) {
			b.sendText(chatID, "This request was already handled.")
		} else {
			b.sendText(chatID, apperror.ToHTTP(err).Message)
		}
		return
	}
	b.sendText(chatID, "Done. The employee has been notified.")
}

// handleStaff shows managers the registrations awaiting approval, with the
// same inline decision buttons the leave review queue uses.
func (b *Bot) handleStaff(ctx context.Context, chatID int64) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil || !e.IsManager {
		b.sendText(chatID, "This command is for managers.")
		return
	}

	pending, err := b.employees.ListPendingApproval(ctx)
	if err != nil {
		b.logger.Error("list pending registrations failed", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		b.sendText(chatID, "No registrations are waiting for approval.")
		return
	}

	for _, p := range pending {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Registration: %s, %s department", p.FullName, p.Department))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Approve", "usr:approve:"+p.ID),
				tgbotapi.NewInlineKeyboardButtonData("Reject", "usr:reject:"+p.ID),
			),
		)
		b.send(msg)
	}
}

// decideRegistration applies a manager's approve/reject to a pending
// registration and returns the reply text.
func (b *Bot) decideRegistration(ctx context.Context, chatID int64, data string) string {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return ""
	}

	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil || !e.IsManager {
		return "This action is for managers."
	}

	if parts[0] == "approve" {
		_, err = b.employees.Approve(ctx, parts[1])
	} else {
		err = b.employees.Remove(ctx, parts[1])
	}
	if err != nil {
		if errors.Is(err, employeeerrors.ErrAlreadyProcessed) {
			return "This registration was already handled."
		}
		return apperror.ToHTTP(err).Message
	}

	if parts[0] == "approve" {
		return "Approved. The employee has been notified."
	}
	return "Rejected. The registrant has been notified."
}

func (b *Bot) showOwnRequests(ctx context.Context, chatID int64) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil {
		b.sendText(chatID, "Send /start to begin.")
		return
	}

	requests, err := b.leaves.GetForEmployee(ctx, e.ID, 5)
	if err != nil {
		b.logger.Error("list own requests failed", zap.Error(err))
		return
	}
	if len(requests) == 0 {
		b.sendText(chatID, "You have no leave requests yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your latest requests:\n")
	for _, r := range requests {
		sb.WriteString(fmt.Sprintf("- %s [%s]\n", formatRequest(r), r.Status))
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) showBalance(ctx context.Context, chatID int64) {
	e, err := b.employees.GetByChatID(ctx, chatID)
	if err != nil {
		b.sendText(chatID, "Send /start to begin.")
		return
	}
	b.sendText(chatID, fmt.Sprintf(
		"Your balance: %s days, %s hours.", e.DailyBalance, e.HourlyBalance,
	))
}

func formatRequest(r leave.LeaveResponse) string {
	if r.Kind == leave.KindHourly {
		return fmt.Sprintf("hourly leave on %s %s-%s (%s)", r.StartDate, r.StartTime, r.EndTime, r.Reason)
	}
	if r.StartDate == r.EndDate {
		return fmt.Sprintf("daily leave on %s (%s)", r.StartDate, r.Reason)
	}
	return fmt.Sprintf("daily leave %s to %s (%s)", r.StartDate, r.EndDate, r.Reason)
}

func (b *Bot) sendMainMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Request leave", "menu:new"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("My requests", "menu:list"),
			tgbotapi.NewInlineKeyboardButtonData("My balance", "menu:balance"),
		),
	)
	b.send(msg)
}

func (b *Bot) sendKindKeyboard(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "What kind of leave do you need?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Daily", "kind:daily"),
			tgbotapi.NewInlineKeyboardButtonData("Hourly", "kind:hourly"),
		),
	)
	b.send(msg)
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (b *Bot) saveSession(ctx context.Context, chatID int64, session *Session) {
	if err := b.sessions.Put(ctx, chatID, session); err != nil {
		b.logger.Error("save session failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) deleteSession(ctx context.Context, chatID int64) {
	if err := b.sessions.Delete(ctx, chatID); err != nil {
		b.logger.Error("delete session failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
