package model

import "errors"

// Failure taxonomy shared by every operation. Any failure aborts the whole
// operation; callers observe either a fully committed state or none of it.
var (
	// ErrInvalidSeeds reports a supplied address that does not match its
	// deterministic derivation.
	ErrInvalidSeeds = errors.New("invalid seeds")

	// ErrInvalidAccountData reports a record that fails to decode or
	// decodes to no known variant.
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrInvalidArgument reports zero amounts, an asset identity that is
	// not part of the pool, or a malformed path.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientFunds reports an overdrawn withdrawal or an unmet
	// slippage floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyInitialized reports a re-init attempt on a populated record.
	ErrAlreadyInitialized = errors.New("account already initialized")

	// ErrNotEnoughAccountKeys reports a malformed multi-hop account list.
	ErrNotEnoughAccountKeys = errors.New("not enough account keys")

	// ErrInvalidInstructionData reports a request payload that cannot be
	// decoded.
	ErrInvalidInstructionData = errors.New("invalid instruction data")
)
