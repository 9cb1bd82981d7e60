package i18n

// Ключи сообщений.
const (
	KeyWelcome            = "welcome"
	KeyWelcomeBack        = "welcome_back"
	KeyPendingApproval    = "pending_approval"
	KeySuspended          = "suspended"
	KeyNotRegistered      = "not_registered"
	KeyProfileApproved    = "profile_approved"
	KeyLocationPrompt     = "location_prompt"
	KeyLocationButton     = "location_btn"
	KeyUpdateButton       = "update_location_btn"
	KeyManualButton       = "manual_location_btn"
	KeyChooseState        = "choose_state"
	KeyChooseCity         = "choose_city"
	KeyBackButton         = "back_btn"
	KeyLocationSaved      = "location_saved"
	KeyThankYou           = "menu_text_thank_you"
	KeyHelp               = "driver_help_text"
	KeyChooseLanguage     = "choose_language"
	KeyLanguageSaved      = "language_saved"
	KeyReminder           = "reminder"
	KeyInvalidLocation    = "invalid_location"
	KeySomethingWentWrong = "error_generic"
)

var catalogue = map[string]map[string]string{
	"en": {
		KeyWelcome:            "👋 <b>Welcome!</b>\n\nYour request has been sent to dispatchers. You will get a message here once your profile is approved.",
		KeyWelcomeBack:        "👋 Welcome back!",
		KeyPendingApproval:    "⏳ Your profile is waiting for approval.",
		KeySuspended:          "⛔️ Your profile is not active. Please contact a dispatcher.",
		KeyNotRegistered:      "Please send /start first.",
		KeyProfileApproved:    "✅ <b>Profile Approved!</b>\n\nPlease share your current location so we can send you orders.\n<i>Click the button below:</i>",
		KeyLocationPrompt:     "📍 <b>Update your location</b>\n\nShare your live location or pick a state and city manually.",
		KeyLocationButton:     "📍 Send Location",
		KeyUpdateButton:       "📍 Update Location",
		KeyManualButton:       "🗺 Select Manually",
		KeyChooseState:        "🇺🇸 <b>Select your state:</b>",
		KeyChooseCity:         "🏙 <b>Select your city:</b>",
		KeyBackButton:         "🔙 Back",
		KeyLocationSaved:      "✅ Location saved: <b>%s, %s</b>",
		KeyThankYou:           "🙏 Thank you! Dispatchers can now see you.",
		KeyHelp:               "ℹ️ <b>Help</b>\n\n• Press <b>📍 Send Location</b> to share your GPS position\n• Press <b>🗺 Select Manually</b> to choose a state and city\n• /language to change the language",
		KeyChooseLanguage:     "🌐 Choose your language:",
		KeyLanguageSaved:      "✅ Language: English",
		KeyReminder:           "⏳ <b>Update Required!</b>\n\nIt has been over %d hours since your last location update.\nPlease share your live location now to receive orders.",
		KeyInvalidLocation:    "⚠️ This location looks invalid. Please try again.",
		KeySomethingWentWrong: "⚠️ Something went wrong. Please try again later.",
	},
	"ru": {
		KeyWelcome:            "👋 <b>Добро пожаловать!</b>\n\nЗаявка отправлена диспетчерам. Здесь придёт сообщение, когда профиль одобрят.",
		KeyWelcomeBack:        "👋 С возвращением!",
		KeyPendingApproval:    "⏳ Профиль ждёт одобрения.",
		KeySuspended:          "⛔️ Профиль не активен. Свяжитесь с диспетчером.",
		KeyNotRegistered:      "Сначала отправьте /start.",
		KeyProfileApproved:    "✅ <b>Профиль одобрен!</b>\n\nПоделитесь текущей локацией, чтобы получать заказы.\n<i>Нажмите кнопку ниже:</i>",
		KeyLocationPrompt:     "📍 <b>Обновите локацию</b>\n\nОтправьте геопозицию или выберите штат и город вручную.",
		KeyLocationButton:     "📍 Отправить локацию",
		KeyUpdateButton:       "📍 Обновить локацию",
		KeyManualButton:       "🗺 Выбрать вручную",
		KeyChooseState:        "🇺🇸 <b>Выберите штат:</b>",
		KeyChooseCity:         "🏙 <b>Выберите город:</b>",
		KeyBackButton:         "🔙 Назад",
		KeyLocationSaved:      "✅ Локация сохранена: <b>%s, %s</b>",
		KeyThankYou:           "🙏 Спасибо! Теперь диспетчеры вас видят.",
		KeyHelp:               "ℹ️ <b>Помощь</b>\n\n• <b>📍 Отправить локацию</b> — поделиться GPS\n• <b>🗺 Выбрать вручную</b> — выбрать штат и город\n• /language — сменить язык",
		KeyChooseLanguage:     "🌐 Выберите язык:",
		KeyLanguageSaved:      "✅ Язык: русский",
		KeyReminder:           "⏳ <b>Нужно обновление!</b>\n\nЛокация не обновлялась больше %d часов.\nОтправьте геопозицию, чтобы получать заказы.",
		KeyInvalidLocation:    "⚠️ Некорректная локация. Попробуйте ещё раз.",
		KeySomethingWentWrong: "⚠️ Что-то пошло не так. Попробуйте позже.",
	},
	"uz": {
		KeyWelcome:            "👋 <b>Xush kelibsiz!</b>\n\nSo'rovingiz dispetcherlarga yuborildi. Profil tasdiqlangach, shu yerga xabar keladi.",
		KeyWelcomeBack:        "👋 Qaytganingiz bilan!",
		KeyPendingApproval:    "⏳ Profilingiz tasdiqlanishini kutmoqda.",
		KeySuspended:          "⛔️ Profilingiz faol emas. Dispetcher bilan bog'laning.",
		KeyNotRegistered:      "Avval /start yuboring.",
		KeyProfileApproved:    "✅ <b>Profil tasdiqlandi!</b>\n\nBuyurtmalar olish uchun joylashuvingizni yuboring.\n<i>Quyidagi tugmani bosing:</i>",
		KeyLocationPrompt:     "📍 <b>Joylashuvni yangilang</b>\n\nGeolokatsiyani yuboring yoki shtat va shaharni qo'lda tanlang.",
		KeyLocationButton:     "📍 Joylashuvni yuborish",
		KeyUpdateButton:       "📍 Joylashuvni yangilash",
		KeyManualButton:       "🗺 Qo'lda tanlash",
		KeyChooseState:        "🇺🇸 <b>Shtatni tanlang:</b>",
		KeyChooseCity:         "🏙 <b>Shaharni tanlang:</b>",
		KeyBackButton:         "🔙 Orqaga",
		KeyLocationSaved:      "✅ Joylashuv saqlandi: <b>%s, %s</b>",
		KeyThankYou:           "🙏 Rahmat! Endi dispetcherlar sizni ko'radi.",
		KeyChooseLanguage:     "🌐 Tilni tanlang:",
		KeyLanguageSaved:      "✅ Til: o'zbekcha",
		KeyReminder:           "⏳ <b>Yangilash kerak!</b>\n\nJoylashuv %d soatdan beri yangilanmadi.\nBuyurtmalar olish uchun geolokatsiyani yuboring.",
		KeySomethingWentWrong: "⚠️ Xatolik yuz berdi. Keyinroq urinib ko'ring.",
	},
}
