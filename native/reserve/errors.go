package reserve

import "errors"

var (
	// ErrBelowMinimum indicates a mint or redeem amount under the configured floor.
	ErrBelowMinimum = errors.New("reserve: amount below configured minimum")
	// ErrInsufficientReserves indicates a withdrawal or reservation exceeding the available balance.
	ErrInsufficientReserves = errors.New("reserve: insufficient reserves")
	// ErrZeroAfterFee indicates a redemption whose net amount vanished after the fee deduction.
	ErrZeroAfterFee = errors.New("reserve: net amount is zero after fee")
	// ErrAmountOverflow indicates a decimal conversion or balance update that exceeds the numeric range.
	ErrAmountOverflow = errors.New("reserve: amount overflow")
	// ErrInvalidAddress indicates a zero address supplied where a real recipient is required.
	ErrInvalidAddress = errors.New("reserve: invalid address")
	// ErrInvalidState indicates pause or unpause called while already in the target state.
	ErrInvalidState = errors.New("reserve: invalid state transition")
	// ErrPaused indicates a user-facing entry point called while the ledger is paused.
	ErrPaused = errors.New("reserve: ledger paused")
	// ErrFeeOutOfBounds indicates a fee parameter outside its admissible range.
	ErrFeeOutOfBounds = errors.New("reserve: fee parameter out of bounds")
	// ErrMinAmountOutOfBounds indicates a minimum-amount floor outside its admissible range.
	ErrMinAmountOutOfBounds = errors.New("reserve: minimum amount out of bounds")
)
