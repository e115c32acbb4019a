package conversation

import "fmt"

// Languages the front ends offer, in keyboard order.
var Languages = []string{"uz", "ru", "en"}

// DefaultLanguage is used when a session carries no language.
const DefaultLanguage = "en"

type messageID int

const (
	msgGreeting messageID = iota
	msgChooseLanguage
	msgSelectLanguageFirst
	msgCredentialPrompt
	msgCredentialFormat
	msgLoginSucceeded
	msgLoginInvalid
	msgLoginFailed
	msgLoginFirst
	msgTurnFailed
)

var messages = map[string]map[messageID]string{
	"uz": {
		msgGreeting:         "Assalomu alaykum! Men Asilman, ERP yordamchingiz. Siz bilan qanday mahsulotlarni boshqarishim mumkin?",
		msgCredentialPrompt: "Iltimos, login va parolingizni bir qatorda, bo'sh joy bilan ajratib yuboring.",
		msgCredentialFormat: "Iltimos, login va parolni bo'sh joy bilan ajratib, bitta xabarda yuboring.",
		msgLoginSucceeded:   "Rahmat! Siz tizimga muvaffaqiyatli kirdingiz. Endi savollaringizni berishingiz mumkin.",
		msgLoginInvalid:     "Login yoki parol noto'g'ri. Iltimos, qayta urinib ko'ring.",
		msgLoginFailed:      "Tizimga kirishda xatolik yuz berdi. Iltimos, keyinroq qayta urinib ko'ring. %s",
		msgTurnFailed:       "So'rovni bajarishda xatolik yuz berdi: %s",
	},
	"ru": {
		msgGreeting:         "Здравствуйте! Я Асил, ваш ERP помощник. Чем могу помочь вам в управлении продуктами?",
		msgCredentialPrompt: "Пожалуйста, отправьте ваш логин и пароль в одной строке, разделенные пробелом.",
		msgCredentialFormat: "Пожалуйста, отправьте логин и пароль в одном сообщении, разделив их пробелом.",
		msgLoginSucceeded:   "Спасибо! Вы успешно вошли в систему. Теперь вы можете задавать свои вопросы.",
		msgLoginInvalid:     "Неверный логин или пароль. Пожалуйста, попробуйте еще раз.",
		msgLoginFailed:      "Произошла ошибка при входе в систему. Пожалуйста, повторите попытку позже. %s",
		msgTurnFailed:       "Не удалось обработать запрос: %s",
	},
	"en": {
		msgGreeting:            "Hello! I am Asil, your ERP assistant. How can I help you manage products today?",
		msgChooseLanguage:      "Please choose your preferred language: ",
		msgSelectLanguageFirst: "Please select your language first by typing /start.",
		msgCredentialPrompt:    "Please send your login and password in one line, separated by a space.",
		msgCredentialFormat:    "Please send the login and password in a single message, separated by a space.",
		msgLoginSucceeded:      "Thank you! You have successfully logged in. You can now ask your questions.",
		msgLoginInvalid:        "Invalid login or password. Please try again.",
		msgLoginFailed:         "An error occurred while logging in. Please try again later. %s",
		msgLoginFirst:          "Please login first.",
		msgTurnFailed:          "Something went wrong while processing your request: %s",
	},
}

// text returns the message in lang, falling back to English.
func text(lang string, id messageID, args ...any) string {
	s, ok := messages[lang][id]
	if !ok {
		s = messages[DefaultLanguage][id]
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}

// SupportedLanguage reports whether lang is one of Languages.
func SupportedLanguage(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// LanguageLabels maps each language code to its keyboard label.
var LanguageLabels = map[string]string{
	"uz": "🇺🇿 Uzbek",
	"ru": "🇷🇺 Russian",
	"en": "🇬🇧 English",
}
