package checkout

import "errors"

var (
	// ErrEmptyCart rejects a checkout with no lines; nothing is written.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
	// ErrPersistenceFailure means the atomic order write failed. The cart
	// is intact and the caller may retry.
	ErrPersistenceFailure = errors.New("order could not be saved")
	// ErrIllegalTransition guards the checkout state machine.
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)
