package apperrors

import "errors"

// Authorization errors: rejected before any state mutation.
var (
	ErrNotOwner             = errors.New("not ticket owner")
	ErrNotOracle            = errors.New("caller is not the oracle")
	ErrNotPlatformOwner     = errors.New("caller is not the platform owner")
	ErrNotSeller            = errors.New("not the seller")
	ErrNotAuthorizedSpender = errors.New("caller is not an authorized spender")
	ErrUnauthorizedSwap     = errors.New("caller is not a party to the swap")
	ErrNotApproved          = errors.New("operator not approved to transfer ticket")
	ErrWrongOwner           = errors.New("asserted owner does not hold the ticket")
	ErrNotDesiredOwner      = errors.New("caller does not own the desired ticket")
	ErrSelfAccept           = errors.New("cannot accept your own offer")
	ErrSelfPurchase         = errors.New("cannot buy your own ticket")
	ErrMakerNoLongerOwns    = errors.New("offer maker no longer owns their ticket")
)

// Validation errors: malformed input.
var (
	ErrInvalidQuantity   = errors.New("invalid ticket quantity")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidAmount     = errors.New("amount must be non-negative")
	ErrMinimumDaysNotMet = errors.New("multi-day event requires at least two days")
	ErrBuyViaSubEvent    = errors.New("multi-day event tickets are sold per day")
	ErrInvalidInput      = errors.New("invalid input")
)

// State conflict errors: stale or nonexistent resources.
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrSubEventNotFound = errors.New("sub-event not found")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrListingNotActive = errors.New("listing not active")
	ErrOfferNotFound    = errors.New("swap offer not found")
	ErrOfferNotActive   = errors.New("swap offer not active")
	ErrEventNotActive   = errors.New("event is not active")
	ErrEventEnded       = errors.New("event already ended")
	ErrTicketUsed       = errors.New("ticket already used")
	ErrTicketInEscrow   = errors.New("ticket is held in escrow")
	ErrSwapNotAllowed   = errors.New("tickets are not swappable")
	ErrAlreadyQueued    = errors.New("already in queue")
	ErrNotQueued        = errors.New("not in queue")
	ErrNotAdmitted      = errors.New("not yet admitted to purchase")
)

// Economic errors: attached value or quantity fails an exact-match or bound check.
var (
	ErrIncorrectPayment      = errors.New("incorrect payment amount")
	ErrIncorrectPrice        = errors.New("incorrect price")
	ErrIncorrectFee          = errors.New("incorrect platform fee")
	ErrInsufficientSupply    = errors.New("not enough tickets available")
	ErrPriceExceedsCap       = errors.New("price exceeds resale cap")
	ErrInsufficientAllowance = errors.New("insufficient point allowance")
	ErrInsufficientBalance   = errors.New("insufficient point balance")
)

var ErrInternalServerError = errors.New("internal server error")
