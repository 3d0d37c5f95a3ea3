package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Funnel texts and button labels. Button presses are matched by exact text,
// so the labels double as routing keys.
const (
	btnAbout   = "🔥 Tell me more"
	btnGetFile = "📕 Get the program"
	btnBuy     = "💳 Buy the intensive"

	startText = "👋 Hi! Glad you're here.\n\n" +
		"We're preparing an intensive with lectures, seminars and live calls.\n" +
		"Tap the button below to see what's inside."
	aboutCaption = "This is the team behind the intensive.\n\n" +
		"Grab the full program as a PDF — button below 👇"
	sellingText = "🚀 Enrollment is open!\n\n" +
		"The intensive starts soon: lectures on the most common topics " +
		"and lots of practice. Seats are limited."
	buyText = "Ready to join? Tap the button below 👇"
	morningText = "☀️ Good morning!\n\n" +
		"Yesterday you grabbed the program — enrollment for the intensive " +
		"is still open. Join us 👇"
)

func aboutKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAbout),
		),
	)
}

func getFileKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnGetFile),
		),
	)
}

func buyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBuy),
		),
	)
}
