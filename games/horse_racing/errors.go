package horse_racing

import "errors"

// Start-race rejections. Each one leaves the race untouched so the caller can retry.
var (
	ErrNoHorseSelected   = errors.New("no horse selected")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBetBelowMinimum   = errors.New("bet below minimum")
	ErrRaceInProgress    = errors.New("race already in progress")
	ErrRaceNotReady      = errors.New("race finished, call NextRace first")
)

// Other controller errors.
var (
	ErrUnknownHorse   = errors.New("unknown horse")
	ErrRaceNotOver    = errors.New("race is not finished")
	ErrRaceNotRunning = errors.New("race is not running")
	ErrInvalidRoster  = errors.New("invalid roster")
	ErrInvalidBalance = errors.New("invalid balance")
)
