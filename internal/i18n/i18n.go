// Package i18n — тексты бота водителей на en/ru/uz.
// Язык всегда передаётся явно: у процесса нет «текущего» языка.
package i18n

import (
	"fmt"
	"strings"
)

// DefaultLanguage — язык, на который откатываемся, если перевода нет.
const DefaultLanguage = "en"

// Languages — поддерживаемые языки в порядке показа в меню.
func Languages() []string {
	return []string{"en", "ru", "uz"}
}

// Normalize приводит код языка Telegram ("ru-RU", "EN") к поддерживаемому.
// Неизвестный язык — DefaultLanguage.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if _, ok := catalogue[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// T возвращает перевод key на lang. Если перевода нет — английский текст,
// если нет и его — сам ключ. args подставляются через fmt.
func T(lang, key string, args ...any) string {
	msg, ok := catalogue[Normalize(lang)][key]
	if !ok {
		msg, ok = catalogue[DefaultLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Variants — все переводы ключа. Нужен, чтобы узнать нажатую
// кнопку reply-клавиатуры на любом языке.
func Variants(key string) []string {
	var out []string
	for _, lang := range Languages() {
		if msg, ok := catalogue[lang][key]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// LanguageName — подпись языка для кнопки.
func LanguageName(lang string) string {
	switch lang {
	case "ru":
		return "Русский 🇷🇺"
	case "uz":
		return "O'zbek 🇺🇿"
	default:
		return "English 🇺🇸"
	}
}
