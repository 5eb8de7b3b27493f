package view

const StartMessage = `🤖 <b>Auction bot</b>

/add name ; lot ; price ; increment ; seconds [; description] — queue a lot
/auction — start the next queued lot
/queue — show the queue
/pause — pause auto-start of the next lot
/resume — resume auto-start
/status — session status`

const (
	AddMissingArgument = "❌ Usage: /add name ; lot ; price ; increment ; seconds [; description]"
	AddInvalidPrice    = "❌ Invalid price, use 12.50 or 12,50"
	AddInvalidDuration = "❌ Invalid duration, whole seconds expected"

	QueueEmpty = "📋 The queue is empty"

	Paused  = "⏸ Paused. Finished lots will not auto-start the next one."
	Resumed = "▶️ Resumed."

	NoActiveAuction  = "No auction is running"
	AuctionRunning   = "An auction is already in progress"
	AuctionFinished  = "⌛ Too late, the auction is over"
	PanelPausedNote  = "Panel is paused, resume first"
	QueueEmptyNote   = "Nothing queued"
	SomethingWrong   = "Something went wrong, try again"
	BidAcceptedAlert = "✅ Your bid: %s PLN"

	OrderConfirmed  = "✅ Order confirmed"
	ReceiptAccepted = "✅ Thanks, noted!"
	NotYourButton   = "This button is not for you"
)
