package ledger

import "errors"

// Sentinel errors returned by the engine. Controllers map these to
// user-visible messages; anything else is a server error.
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrCompletionNotFound  = errors.New("completion not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInfluencerNotFound  = errors.New("influencer profile not found")
	ErrAlreadyCompleted    = errors.New("task already completed by this user")
	ErrTaskUnavailable     = errors.New("task is not available")
	ErrProofRequired       = errors.New("proof is required for this task type")
	ErrProofNotAccepted    = errors.New("this task type does not take proof")
	ErrAlreadyVerified     = errors.New("submission already verified")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInvalidPin          = errors.New("invalid withdrawal PIN")
	ErrSetupIncomplete     = errors.New("withdrawal setup incomplete")
	ErrOTPInvalid          = errors.New("OTP invalid, expired or already used")
	ErrBudgetExceeded      = errors.New("influencer budget exceeded")
	ErrAlreadySettled      = errors.New("withdrawal already settled")
)
