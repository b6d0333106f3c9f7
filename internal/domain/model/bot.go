package model

// BotRegistration binds one operator bot credential and one payment-provider
// credential to a broadcast channel. Registrations are immutable once stored;
// they are only removed when Telegram reports the bot token as revoked.
type BotRegistration struct {
	BotToken     string
	PaymentToken string
	Channel      string
	Email        string
}
