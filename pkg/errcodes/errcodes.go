package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	NotFound            failure.ErrorCode = "NotFound"

	// Auction lifecycle.
	NoActiveAuction        failure.ErrorCode = "NoActiveAuction"        // bid or close with nothing running
	AuctionInProgress      failure.ErrorCode = "AuctionInProgress"      // start requested while one is active
	AuctionAlreadyFinished failure.ErrorCode = "AuctionAlreadyFinished" // bid arrived at or after expiry
	QueueEmpty             failure.ErrorCode = "QueueEmpty"
	PanelPaused            failure.ErrorCode = "PanelPaused"
	ControllerStopped      failure.ErrorCode = "ControllerStopped"

	// Enqueue input.
	InvalidLot       failure.ErrorCode = "InvalidLot"
	InvalidPrice     failure.ErrorCode = "InvalidPrice"
	InvalidIncrement failure.ErrorCode = "InvalidIncrement"
	InvalidDuration  failure.ErrorCode = "InvalidDuration"

	// Integrations.
	ShopDisabled    failure.ErrorCode = "ShopDisabled"
	ImportJobFailed failure.ErrorCode = "ImportJobFailed"
)
