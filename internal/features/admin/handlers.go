// Package admin — handlers.go обрабатывает команды и кнопки бота операторов.
// Все команды принимаются только из группы операторов.
package admin

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/bot"
	"serotonyl.ru/teamhub-bot/internal/bot/filters"
	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/features/discovery"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
	"serotonyl.ru/teamhub-bot/internal/geo"
)

// Префиксы callback_data бота операторов.
const (
	cbRefreshDrivers = "refresh_drivers"
	cbClose          = "admin_close"
	cbApprove        = "approve_"

	cbFindPage   = "find_page_"
	cbFindState  = "find_state_"
	cbFindCity   = "find_city_" // find_city_<STATE>_<index>
	cbFindAll    = "find_all_"
	cbFindBack   = "find_back_states"
	cbRatePage   = "rate_page_"
	cbRateSelect = "rate_select_"
	cbRateGood   = "rate_good_"
	cbRateBad    = "rate_bad_"
	cbDelPage    = "del_page_"
	cbDelSelect  = "del_select_"
	cbDelConfirm = "del_confirm"
	cbDelCancel  = "del_cancel"
)

// Telegram режет сообщения длиннее 4096 символов, оставляем запас под разметку.
const messageLimit = 4000

const auditLimit = 20

// Handler — Router бота операторов.
type Handler struct {
	service *Service
	api     bot.Sender
	filter  *filters.ChatFilter
	parser  *bot.CommandParser
	loc     *time.Location
	now     func() time.Time
}

// NewHandler создаёт обработчик бота операторов.
// loc — часовой пояс для журнала; nil — UTC.
func NewHandler(service *Service, api bot.Sender, filter *filters.ChatFilter, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		service: service,
		api:     api,
		filter:  filter,
		parser:  bot.NewCommandParser(),
		loc:     loc,
		now:     time.Now,
	}
}

// HandleMessage обрабатывает команду из группы операторов.
func (h *Handler) HandleMessage(ctx context.Context, msg *telego.Message) {
	if !h.filter.CheckAdmin(msg) {
		return
	}
	cmd, args, ok := h.parser.ParseCommand(msg.Text)
	if !ok {
		return
	}

	r := bot.NewMessage{API: h.api, Chat: msg.Chat.ID}
	adminID := msg.From.ID

	switch {
	case cmd == "start" || cmd == "help":
		h.respond(ctx, r, helpText, nil)

	case cmd == "id":
		h.respond(ctx, r, fmt.Sprintf("🆔 Chat ID: <code>%d</code>", msg.Chat.ID), nil)

	case cmd == "drivers":
		h.handleDrivers(ctx, r)

	case cmd == "find":
		if len(args) == 0 {
			h.respond(ctx, r, "🔍 <b>Select State:</b>", findStatesKeyboard(0))
			return
		}
		h.handleFind(ctx, r, discovery.ParseArgs(args))

	case cmd == "rate":
		h.handleRateCommand(ctx, r, adminID, args)

	case strings.HasPrefix(cmd, "rate_"):
		if id, ok := parseID(strings.TrimPrefix(cmd, "rate_")); ok {
			h.showRatePrompt(ctx, r, id)
		}

	case cmd == "delete":
		if len(args) == 0 {
			h.showDriverMenu(ctx, r, "🗑 <b>Select driver to delete:</b>", cbDelSelect, cbDelPage, 0)
			return
		}
		if id, ok := parseID(args[0]); ok {
			h.askDeleteConfirm(ctx, r, adminID, id)
		} else {
			h.respond(ctx, r, "⚠️ Usage: <code>/delete ID</code>", nil)
		}

	case cmd == "approve":
		id, ok := parseID(firstArg(args))
		if !ok {
			h.respond(ctx, r, "⚠️ Usage: <code>/approve ID</code>", nil)
			return
		}
		h.handleApproveCommand(ctx, r, adminID, id)

	case cmd == "log":
		entries, err := h.service.RecentActions(ctx, auditLimit)
		if err != nil {
			h.fail(ctx, r, "Ошибка чтения журнала", err)
			return
		}
		h.respond(ctx, r, formatAudit(entries, h.loc), nil)
	}
}

// HandleCallback обрабатывает нажатия inline-кнопок в группе операторов.
func (h *Handler) HandleCallback(ctx context.Context, query *telego.CallbackQuery) {
	if query.Message == nil || !h.filter.IsAdminGroup(query.Message.GetChat().ID) {
		bot.Answer(ctx, h.api, query, "⛔ Access denied")
		return
	}

	r := bot.ForCallback(h.api, query)
	adminID := query.From.ID
	data := query.Data
	notice := ""

	switch {
	case data == cbClose:
		h.closeMessage(ctx, query)

	case data == cbRefreshDrivers:
		h.handleDrivers(ctx, r)
		notice = "🔄 Updated"

	case data == cbFindBack:
		h.respond(ctx, r, "🔍 <b>Select State:</b>", findStatesKeyboard(0))

	case strings.HasPrefix(data, cbFindPage):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, cbFindPage))
		h.respond(ctx, r, "🔍 <b>Select State:</b>", findStatesKeyboard(page))

	case strings.HasPrefix(data, cbFindState):
		code := strings.TrimPrefix(data, cbFindState)
		if _, ok := geo.USStates[code]; ok {
			h.respond(ctx, r, fmt.Sprintf("🏙 <b>Select City in %s:</b>", code), findCitiesKeyboard(code))
		}

	case strings.HasPrefix(data, cbFindAll):
		h.handleFind(ctx, r, discovery.Query{State: strings.TrimPrefix(data, cbFindAll)})

	case strings.HasPrefix(data, cbFindCity):
		code, idx, ok := splitCodeNumber(strings.TrimPrefix(data, cbFindCity))
		cities := geo.USCities[code]
		if ok && idx >= 0 && idx < len(cities) {
			h.handleFind(ctx, r, discovery.Query{State: code, City: cities[idx]})
		}

	case strings.HasPrefix(data, cbRatePage):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, cbRatePage))
		h.showDriverMenu(ctx, r, "📝 <b>Select driver to rate:</b>", cbRateSelect, cbRatePage, page)

	case strings.HasPrefix(data, cbRateSelect):
		if id, ok := parseID(strings.TrimPrefix(data, cbRateSelect)); ok {
			h.showRatePrompt(ctx, r, id)
		}

	case strings.HasPrefix(data, cbRateGood), strings.HasPrefix(data, cbRateBad):
		passed := strings.HasPrefix(data, cbRateGood)
		raw := strings.TrimPrefix(strings.TrimPrefix(data, cbRateGood), cbRateBad)
		if id, ok := parseID(raw); ok {
			h.saveRating(ctx, r, adminID, id, passed, "", "")
			notice = "✅ Saved"
		}

	case strings.HasPrefix(data, cbDelPage):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, cbDelPage))
		h.showDriverMenu(ctx, r, "🗑 <b>Select driver to delete:</b>", cbDelSelect, cbDelPage, page)

	case strings.HasPrefix(data, cbDelSelect):
		if id, ok := parseID(strings.TrimPrefix(data, cbDelSelect)); ok {
			h.askDeleteConfirm(ctx, r, adminID, id)
		}

	case data == cbDelConfirm:
		notice = h.confirmDelete(ctx, r, adminID)

	case data == cbDelCancel:
		h.service.ClearState(adminID)
		h.respond(ctx, r, "❌ Deletion cancelled.", nil)

	case strings.HasPrefix(data, cbApprove):
		if id, ok := parseID(strings.TrimPrefix(data, cbApprove)); ok {
			notice = h.handleApproveCallback(ctx, query, r, id)
		}
	}

	bot.Answer(ctx, h.api, query, notice)
}

// NotifyNewDriver публикует заявку нового водителя в группе операторов.
// Вызывается из DB listener по каналу new_driver.
func (h *Handler) NotifyNewDriver(ctx context.Context, userID int64) error {
	d, err := h.service.Driver(ctx, userID)
	if err != nil {
		return err
	}
	chatID := h.filter.AdminGroupID()
	msg := tu.Message(tu.ID(chatID), formatNewDriver(d)).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(bot.Inline(bot.Row(bot.Button{
			Text: "✅ Approve Driver",
			Data: cbApprove + strconv.FormatInt(userID, 10),
		})))
	if _, err := h.api.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("не удалось отправить заявку %d в группу: %w", userID, err)
	}
	return nil
}

func (h *Handler) handleDrivers(ctx context.Context, r bot.Responder) {
	list, err := h.service.ActiveDrivers(ctx)
	if err != nil {
		h.fail(ctx, r, "Ошибка получения списка водителей", err)
		return
	}

	parts := bot.SplitText(formatDriverList(list, h.now()), messageLimit)
	refresh := bot.Inline(bot.Row(
		bot.Button{Text: "🔄 Refresh", Data: cbRefreshDrivers},
		bot.Button{Text: "❌ Close", Data: cbClose},
	))

	h.respondParts(ctx, r, parts, refresh)
}

func (h *Handler) handleFind(ctx context.Context, r bot.Responder, q discovery.Query) {
	res, err := h.service.Find(ctx, q)
	if err != nil {
		h.fail(ctx, r, "Ошибка поиска водителей", err)
		return
	}

	log.WithFields(log.Fields{
		"phrase":  res.Phrase,
		"mode":    res.Mode,
		"outcome": res.Outcome,
		"found":   len(res.Entries),
	}).Info("Поиск водителей")

	parts := bot.SplitText(formatDiscovery(res), messageLimit)
	var back *telego.InlineKeyboardMarkup
	if _, editable := r.(bot.EditableMessage); editable {
		back = bot.Inline(bot.Row(bot.Button{Text: "🔙 Back", Data: cbFindBack}))
	}
	h.respondParts(ctx, r, parts, back)
}

// respondParts отвечает первой частью через r (правка меню или новое
// сообщение), остальные части досылает новыми сообщениями в тот же чат.
// Кнопки ставятся под последней частью.
func (h *Handler) respondParts(ctx context.Context, r bot.Responder, parts []string, markup *telego.InlineKeyboardMarkup) {
	next := bot.NewMessage{API: h.api, Chat: r.ChatID()}
	for i, part := range parts {
		var kb *telego.InlineKeyboardMarkup
		if i == len(parts)-1 {
			kb = markup
		}
		if i == 0 {
			h.respond(ctx, r, part, kb)
			continue
		}
		h.respond(ctx, next, part, kb)
	}
}

// handleRateCommand: "/rate" — меню, "/rate ID" — кнопки оценки,
// "/rate ID good|bad [from] [to]" — оценка сразу с маршрутом.
func (h *Handler) handleRateCommand(ctx context.Context, r bot.Responder, adminID int64, args []string) {
	if len(args) == 0 {
		h.showDriverMenu(ctx, r, "📝 <b>Select driver to rate:</b>", cbRateSelect, cbRatePage, 0)
		return
	}
	id, ok := parseID(args[0])
	if !ok {
		h.respond(ctx, r, "⚠️ Usage: <code>/rate ID [good|bad] [from] [to]</code>", nil)
		return
	}
	if len(args) == 1 {
		h.showRatePrompt(ctx, r, id)
		return
	}

	var passed bool
	switch strings.ToLower(args[1]) {
	case "good", "+", "👍":
		passed = true
	case "bad", "-", "👎":
		passed = false
	default:
		h.respond(ctx, r, "⚠️ Verdict must be <code>good</code> or <code>bad</code>", nil)
		return
	}
	from, to := "", ""
	if len(args) > 2 {
		from = args[2]
	}
	if len(args) > 3 {
		to = strings.Join(args[3:], " ")
	}
	h.saveRating(ctx, r, adminID, id, passed, from, to)
}

func (h *Handler) showRatePrompt(ctx context.Context, r bot.Responder, driverID int64) {
	d, err := h.service.Driver(ctx, driverID)
	if err != nil {
		h.driverError(ctx, r, driverID, err)
		return
	}
	id := strconv.FormatInt(driverID, 10)
	text := fmt.Sprintf("📝 <b>Rating Driver</b> <code>%d</code>\n👤 %s\n\nHow was the completion?",
		driverID, html.EscapeString(d.DisplayName()))
	h.respond(ctx, r, text, bot.Inline(
		bot.Row(
			bot.Button{Text: "👍 Good", Data: cbRateGood + id},
			bot.Button{Text: "👎 Bad", Data: cbRateBad + id},
		),
		bot.Row(bot.Button{Text: "❌ Close", Data: cbClose}),
	))
}

func (h *Handler) saveRating(ctx context.Context, r bot.Responder, adminID, driverID int64, passed bool, from, to string) {
	score, err := h.service.Rate(ctx, adminID, driverID, passed, from, to)
	if err != nil {
		h.driverError(ctx, r, driverID, err)
		return
	}
	h.respond(ctx, r, formatScore(passed, driverID, score), nil)
}

// showDriverMenu — постраничный список активных водителей кнопками.
func (h *Handler) showDriverMenu(ctx context.Context, r bot.Responder, title, selectPrefix, pagePrefix string, page int) {
	list, err := h.service.ActiveDrivers(ctx)
	if err != nil {
		h.fail(ctx, r, "Ошибка получения списка водителей", err)
		return
	}
	if len(list) == 0 {
		h.respond(ctx, r, textNoDrivers, nil)
		return
	}

	items := make([]bot.Button, 0, len(list))
	for _, d := range list {
		items = append(items, bot.Button{
			Text: fmt.Sprintf("%s (%s)", d.DisplayName(), rating.FormatStars(d.Rating.Value)),
			Data: selectPrefix + strconv.FormatInt(d.UserID, 10),
		})
	}
	rows, total := bot.Paginate(items, page, 1, pagePrefix)
	rows = append(rows, bot.Row(bot.Button{Text: "❌ Close", Data: cbClose}))

	page = min(max(page, 0), total-1)
	h.respond(ctx, r, fmt.Sprintf("%s\nPage %d/%d", title, page+1, total), bot.Inline(rows...))
}

func (h *Handler) askDeleteConfirm(ctx context.Context, r bot.Responder, adminID, driverID int64) {
	d, err := h.service.Driver(ctx, driverID)
	if err != nil {
		h.driverError(ctx, r, driverID, err)
		return
	}
	h.service.SetState(adminID, StateConfirmDelete, driverID)

	text := fmt.Sprintf("⚠️ <b>WARNING: DELETING USER %d</b>\n👤 %s\n\nAre you sure?",
		driverID, html.EscapeString(d.DisplayName()))
	h.respond(ctx, r, text, bot.Inline(bot.Row(
		bot.Button{Text: "❌ Cancel", Data: cbDelCancel},
		bot.Button{Text: "✅ Yes, delete", Data: cbDelConfirm},
	)))
}

// confirmDelete удаляет водителя, если этот же оператор начал удаление
// и подтверждение не истекло.
func (h *Handler) confirmDelete(ctx context.Context, r bot.Responder, adminID int64) string {
	state := h.service.GetState(adminID)
	if state == nil || state.State != StateConfirmDelete {
		h.respond(ctx, r, "⌛ Confirmation expired. Run /delete again.", nil)
		return ""
	}
	h.service.ClearState(adminID)

	if err := h.service.Remove(ctx, adminID, state.TargetID); err != nil {
		h.driverError(ctx, r, state.TargetID, err)
		return ""
	}
	log.WithFields(log.Fields{"admin_id": adminID, "user_id": state.TargetID}).Info("Водитель удалён")
	h.respond(ctx, r, fmt.Sprintf("🗑 User %d has been deleted.", state.TargetID), nil)
	return "🗑 Deleted"
}

func (h *Handler) handleApproveCommand(ctx context.Context, r bot.Responder, adminID, driverID int64) {
	if err := h.service.Approve(ctx, adminID, driverID); err != nil {
		h.driverError(ctx, r, driverID, err)
		return
	}
	h.respond(ctx, r, fmt.Sprintf("✅ Driver <code>%d</code> approved.", driverID), nil)
}

// handleApproveCallback одобряет водителя из заявки и дописывает отметку
// в текст заявки (кнопка пропадает).
func (h *Handler) handleApproveCallback(ctx context.Context, query *telego.CallbackQuery, r bot.Responder, driverID int64) string {
	if err := h.service.Approve(ctx, query.From.ID, driverID); err != nil {
		if errors.Is(err, common.ErrDriverNotFound) {
			return "❌ Driver not found"
		}
		log.WithError(err).WithField("user_id", driverID).Error("Ошибка одобрения водителя")
		return "❌ Error"
	}

	original := ""
	if m, ok := query.Message.(*telego.Message); ok {
		original = html.EscapeString(m.Text)
	}
	text := fmt.Sprintf("%s\n\n✅ APPROVED (by %s)", original, html.EscapeString(query.From.FirstName))
	h.respond(ctx, r, strings.TrimLeft(text, "\n"), nil)
	return "✅ Approved"
}

func (h *Handler) closeMessage(ctx context.Context, query *telego.CallbackQuery) {
	err := h.api.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(query.Message.GetChat().ID),
		MessageID: query.Message.GetMessageID(),
	})
	if err != nil {
		log.WithError(err).Debug("Не удалось удалить сообщение")
	}
}

func (h *Handler) driverError(ctx context.Context, r bot.Responder, driverID int64, err error) {
	if errors.Is(err, common.ErrDriverNotFound) {
		h.respond(ctx, r, fmt.Sprintf("❌ Driver <code>%d</code> not found.", driverID), nil)
		return
	}
	h.fail(ctx, r, "Ошибка операции с водителем", err)
}

func (h *Handler) fail(ctx context.Context, r bot.Responder, msg string, err error) {
	log.WithError(err).WithField("chat_id", r.ChatID()).Error(msg)
	h.respond(ctx, r, "❌ Something went wrong. Try again later.", nil)
}

func (h *Handler) respond(ctx context.Context, r bot.Responder, text string, markup *telego.InlineKeyboardMarkup) {
	if err := r.Respond(ctx, text, markup); err != nil {
		log.WithError(err).WithField("chat_id", r.ChatID()).Error("Ошибка ответа")
	}
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// splitCodeNumber разбирает "NY_3" на код штата и число.
func splitCodeNumber(s string) (string, int, bool) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, false
	}
	return s[:i], n, true
}

// --- клавиатуры ---

func findStatesKeyboard(page int) *telego.InlineKeyboardMarkup {
	items := make([]bot.Button, 0, len(geo.StateOrder))
	for _, code := range geo.StateOrder {
		items = append(items, bot.Button{Text: geo.USStates[code], Data: cbFindState + code})
	}
	rows, _ := bot.Paginate(items, page, 2, cbFindPage)
	rows = append(rows, bot.Row(bot.Button{Text: "❌ Close", Data: cbClose}))
	return bot.Inline(rows...)
}

func findCitiesKeyboard(code string) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	rows = append(rows, bot.Row(bot.Button{Text: "🌐 All " + geo.USStates[code], Data: cbFindAll + code}))
	var row []bot.Button
	for i, city := range geo.USCities[code] {
		row = append(row, bot.Button{Text: city, Data: fmt.Sprintf("%s%s_%d", cbFindCity, code, i)})
		if len(row) == 2 {
			rows = append(rows, bot.Row(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, bot.Row(row...))
	}
	rows = append(rows, bot.Row(bot.Button{Text: "🔙 Back", Data: cbFindBack}))
	return bot.Inline(rows...)
}
