package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"ru":    "ru",
		"ru-RU": "ru",
		" UZ ":  "uz",
		"en_US": "en",
		"de":    "en",
		"":      "en",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestT_FallsBackToEnglish(t *testing.T) {
	// в uz нет справки
	assert.Equal(t, catalogue["en"][KeyHelp], T("uz", KeyHelp))
	assert.Equal(t, catalogue["en"][KeyWelcomeBack], T("de", KeyWelcomeBack))
	assert.Equal(t, "no_such_key", T("ru", "no_such_key"))
}

func TestT_Args(t *testing.T) {
	assert.Equal(t, "✅ Локация сохранена: <b>Illinois, Chicago</b>", T("ru", KeyLocationSaved, "Illinois", "Chicago"))
	assert.Contains(t, T("en", KeyReminder, 12), "over 12 hours")
}

func TestVariants(t *testing.T) {
	assert.Equal(t, []string{"🗺 Select Manually", "🗺 Выбрать вручную", "🗺 Qo'lda tanlash"}, Variants(KeyManualButton))
	assert.Equal(t, []string{catalogue["en"][KeyHelp], catalogue["ru"][KeyHelp]}, Variants(KeyHelp))
}

func TestCatalogueCoversEnglish(t *testing.T) {
	for lang, msgs := range catalogue {
		for key := range msgs {
			_, ok := catalogue[DefaultLanguage][key]
			assert.True(t, ok, "ключ %s (%s) есть без английского текста", key, lang)
		}
	}
}
