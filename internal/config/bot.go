package config

// Bot covers the Telegram side: the bot token and the channels the auction
// lives in. Token, admin and the auction chat are mandatory; the optional
// channels degrade to disabled when unset.
type Bot struct {
	Token string `env:"BOT_TOKEN,required,notEmpty"`

	AdminID int64 `env:"BOT_ADMIN_ID,required,notEmpty"`

	AuctionChatID  int64 `env:"AUCTION_CHAT_ID,required,notEmpty"`
	AnnounceChatID int64 `env:"ANNOUNCE_CHAT_ID"` // public announcements, 0 disables
	SellerChatID   int64 `env:"SELLER_CHAT_ID"`   // seller panel + end notices, 0 disables
	OrderChatID    int64 `env:"ORDER_CHAT_ID"`    // order confirmations, 0 disables
}
