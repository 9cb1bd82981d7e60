// Package drivers — handlers.go обрабатывает бота водителей: старт,
// язык, отправку live-локации и ручной выбор штата и города.
package drivers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/bot"
	"serotonyl.ru/teamhub-bot/internal/bot/filters"
	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/geo"
	"serotonyl.ru/teamhub-bot/internal/i18n"
)

// Префиксы callback_data бота водителей.
const (
	cbLanguage   = "lang_"
	cbStatePage  = "state_page_"
	cbSetState   = "set_state_"
	cbCityPage   = "city_page_" // city_page_<STATE>_<page>
	cbSetCity    = "set_city_"  // set_city_<STATE>_<index>
	cbBackStates = "back_to_states"
)

// Handler — Router бота водителей.
type Handler struct {
	service *Service
	api     bot.Sender
	parser  *bot.CommandParser
}

// NewHandler создаёт обработчик бота водителей.
func NewHandler(service *Service, api bot.Sender) *Handler {
	return &Handler{
		service: service,
		api:     api,
		parser:  bot.NewCommandParser(),
	}
}

// HandleMessage обрабатывает сообщение в личке с ботом.
func (h *Handler) HandleMessage(ctx context.Context, msg *telego.Message) {
	if !filters.CheckPrivate(msg) {
		return
	}

	userID := msg.From.ID
	d := h.lookup(ctx, userID)
	lang := languageOf(d, msg.From)

	if msg.Location != nil {
		h.handleLocation(ctx, d, lang, msg.Location.Latitude, msg.Location.Longitude)
		return
	}

	if cmd, _, ok := h.parser.ParseCommand(msg.Text); ok {
		switch cmd {
		case "start":
			h.handleStart(ctx, d, msg.From, lang)
		case "help":
			h.send(ctx, userID, i18n.T(lang, i18n.KeyHelp), nil)
		case "language":
			h.send(ctx, userID, i18n.T(lang, i18n.KeyChooseLanguage), languageKeyboard())
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case slices.Contains(i18n.Variants(i18n.KeyUpdateButton), text):
		if d == nil {
			h.send(ctx, userID, i18n.T(lang, i18n.KeyNotRegistered), nil)
			return
		}
		h.send(ctx, userID, i18n.T(lang, i18n.KeyLocationPrompt), locationKeyboard(lang))
	case slices.Contains(i18n.Variants(i18n.KeyManualButton), text):
		if d == nil {
			h.send(ctx, userID, i18n.T(lang, i18n.KeyNotRegistered), nil)
			return
		}
		h.respond(ctx, bot.NewMessage{API: h.api, Chat: userID}, i18n.T(lang, i18n.KeyChooseState), statesKeyboard(0))
	}
}

// HandleCallback обрабатывает нажатия inline-кнопок.
func (h *Handler) HandleCallback(ctx context.Context, query *telego.CallbackQuery) {
	userID := query.From.ID
	d := h.lookup(ctx, userID)
	lang := languageOf(d, &query.From)
	r := bot.ForCallback(h.api, query)
	data := query.Data

	switch {
	case strings.HasPrefix(data, cbLanguage):
		lang = h.handleLanguage(ctx, d, strings.TrimPrefix(data, cbLanguage))
		h.respond(ctx, r, i18n.T(lang, i18n.KeyLanguageSaved), nil)

	case data == cbBackStates:
		h.respond(ctx, r, i18n.T(lang, i18n.KeyChooseState), statesKeyboard(0))

	case strings.HasPrefix(data, cbStatePage):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, cbStatePage))
		h.respond(ctx, r, i18n.T(lang, i18n.KeyChooseState), statesKeyboard(page))

	case strings.HasPrefix(data, cbSetState):
		code := strings.TrimPrefix(data, cbSetState)
		h.respond(ctx, r, i18n.T(lang, i18n.KeyChooseCity), citiesKeyboard(lang, code, 0))

	case strings.HasPrefix(data, cbCityPage):
		code, page, ok := splitCodeNumber(strings.TrimPrefix(data, cbCityPage))
		if ok {
			h.respond(ctx, r, i18n.T(lang, i18n.KeyChooseCity), citiesKeyboard(lang, code, page))
		}

	case strings.HasPrefix(data, cbSetCity):
		code, idx, ok := splitCodeNumber(strings.TrimPrefix(data, cbSetCity))
		cities := geo.USCities[code]
		if !ok || idx < 0 || idx >= len(cities) || d == nil {
			break
		}
		h.handleManualLocation(ctx, r, lang, userID, geo.USStates[code], cities[idx])
	}

	bot.Answer(ctx, h.api, query, "")
}

func (h *Handler) handleStart(ctx context.Context, d *Driver, from *telego.User, lang string) {
	userID := from.ID
	if d == nil {
		if err := h.service.Register(ctx, userID, fullName(from), "", lang); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации водителя")
			h.send(ctx, userID, i18n.T(lang, i18n.KeySomethingWentWrong), nil)
			return
		}
		h.send(ctx, userID, i18n.T(lang, i18n.KeyWelcome), nil)
		return
	}

	switch d.Status {
	case StatusActive:
		h.send(ctx, userID, i18n.T(lang, i18n.KeyWelcomeBack), mainKeyboard(lang))
	case StatusPending:
		h.send(ctx, userID, i18n.T(lang, i18n.KeyPendingApproval), nil)
	default:
		h.send(ctx, userID, i18n.T(lang, i18n.KeySuspended), nil)
	}
}

func (h *Handler) handleLanguage(ctx context.Context, d *Driver, code string) string {
	lang := i18n.Normalize(code)
	if d == nil {
		return lang
	}
	if err := h.service.SetLanguage(ctx, d.UserID, lang); err != nil {
		log.WithError(err).WithField("user_id", d.UserID).Warn("Не удалось сохранить язык")
	}
	return lang
}

func (h *Handler) handleLocation(ctx context.Context, d *Driver, lang string, lat, lon float64) {
	if d == nil {
		return
	}
	userID := d.UserID

	loc, err := h.service.SaveLiveLocation(ctx, userID, lat, lon)
	if errors.Is(err, common.ErrInvalidLocation) {
		h.send(ctx, userID, i18n.T(lang, i18n.KeyInvalidLocation), nil)
		return
	}
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сохранения локации")
		h.send(ctx, userID, i18n.T(lang, i18n.KeySomethingWentWrong), nil)
		return
	}

	h.send(ctx, userID, i18n.T(lang, i18n.KeyLocationSaved, loc.State, loc.City), nil)
	h.send(ctx, userID, i18n.T(lang, i18n.KeyThankYou), mainKeyboard(lang))
}

func (h *Handler) handleManualLocation(ctx context.Context, r bot.Responder, lang string, userID int64, state, city string) {
	loc, err := h.service.SaveManualLocation(ctx, userID, state, city)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сохранения локации")
		h.respond(ctx, r, i18n.T(lang, i18n.KeySomethingWentWrong), nil)
		return
	}
	h.respond(ctx, r, i18n.T(lang, i18n.KeyLocationSaved, loc.State, loc.City), nil)
	h.send(ctx, userID, i18n.T(lang, i18n.KeyThankYou), mainKeyboard(lang))
}

// NotifyApproved просит одобренного водителя поделиться локацией.
// Вызывается из DB listener по каналу user_approved.
func (h *Handler) NotifyApproved(ctx context.Context, userID int64) error {
	d, err := h.service.Get(ctx, userID)
	if err != nil {
		return err
	}
	lang := i18n.Normalize(d.Language)
	_, err = h.api.SendMessage(ctx, tu.Message(tu.ID(userID), i18n.T(lang, i18n.KeyProfileApproved)).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(approvedKeyboard(lang)))
	if err != nil {
		return fmt.Errorf("не удалось уведомить водителя %d: %w", userID, err)
	}
	return nil
}

// RemindLocation — напоминание неактивному водителю (задача cron).
func (h *Handler) RemindLocation(ctx context.Context, userID int64, language string, hours int) error {
	lang := i18n.Normalize(language)
	_, err := h.api.SendMessage(ctx, tu.Message(tu.ID(userID), i18n.T(lang, i18n.KeyReminder, hours)).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(reminderKeyboard(lang)))
	return err
}

// lookup возвращает водителя или nil, если он ещё не зарегистрирован.
func (h *Handler) lookup(ctx context.Context, userID int64) *Driver {
	d, err := h.service.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrDriverNotFound) {
			log.WithError(err).WithField("user_id", userID).Warn("Ошибка получения водителя")
		}
		return nil
	}
	return d
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup telego.ReplyMarkup) {
	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if markup != nil {
		msg = msg.WithReplyMarkup(markup)
	}
	if _, err := h.api.SendMessage(ctx, msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) respond(ctx context.Context, r bot.Responder, text string, markup *telego.InlineKeyboardMarkup) {
	if err := r.Respond(ctx, text, markup); err != nil {
		log.WithError(err).WithField("chat_id", r.ChatID()).Error("Ошибка ответа")
	}
}

// languageOf — язык водителя из базы, иначе язык клиента Telegram.
func languageOf(d *Driver, from *telego.User) string {
	if d != nil && d.Language != "" {
		return i18n.Normalize(d.Language)
	}
	if from != nil {
		return i18n.Normalize(from.LanguageCode)
	}
	return i18n.DefaultLanguage
}

func fullName(u *telego.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
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

func languageKeyboard() *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, lang := range i18n.Languages() {
		rows = append(rows, bot.Row(bot.Button{Text: i18n.LanguageName(lang), Data: cbLanguage + lang}))
	}
	return bot.Inline(rows...)
}

func statesKeyboard(page int) *telego.InlineKeyboardMarkup {
	items := make([]bot.Button, 0, len(geo.StateOrder))
	for _, code := range geo.StateOrder {
		items = append(items, bot.Button{Text: geo.USStates[code], Data: cbSetState + code})
	}
	rows, _ := bot.Paginate(items, page, 2, cbStatePage)
	return bot.Inline(rows...)
}

func citiesKeyboard(lang, code string, page int) *telego.InlineKeyboardMarkup {
	cities := geo.USCities[code]
	items := make([]bot.Button, 0, len(cities))
	for i, city := range cities {
		items = append(items, bot.Button{Text: city, Data: fmt.Sprintf("%s%s_%d", cbSetCity, code, i)})
	}
	rows, _ := bot.Paginate(items, page, 2, cbCityPage+code+"_")
	rows = append(rows, bot.Row(bot.Button{Text: i18n.T(lang, i18n.KeyBackButton), Data: cbBackStates}))
	return bot.Inline(rows...)
}

func locationKeyboard(lang string) *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyLocationButton)).WithRequestLocation()),
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyManualButton))),
	).WithResizeKeyboard().WithOneTimeKeyboard()
}

func mainKeyboard(lang string) *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyLocationButton)).WithRequestLocation()),
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyManualButton))),
		tu.KeyboardRow(tu.KeyboardButton("/help")),
	).WithResizeKeyboard()
}

func approvedKeyboard(lang string) *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyLocationButton)).WithRequestLocation()),
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyUpdateButton))),
	).WithResizeKeyboard().WithIsPersistent()
}

func reminderKeyboard(lang string) *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(tu.KeyboardButton(i18n.T(lang, i18n.KeyLocationButton)).WithRequestLocation()),
	).WithResizeKeyboard().WithOneTimeKeyboard()
}
