package sim

import "errors"

var (
	// ErrInvalidProfile is returned when a profile has missing or
	// out-of-range statistics.
	ErrInvalidProfile = errors.New("invalid player profile")

	// ErrNoPlayers is returned when a match is requested without two profiles.
	ErrNoPlayers = errors.New("two player profiles are required")

	// ErrSamePlayer is returned when both seats hold the same player.
	ErrSamePlayer = errors.New("players must be different")

	// ErrInvalidBestOf is returned for an even or too small best-of value.
	ErrInvalidBestOf = errors.New("best of must be an odd number of at least 3")

	// ErrInvalidTrials is returned for a non-positive Monte Carlo trial count.
	ErrInvalidTrials = errors.New("trial count must be positive")

	// ErrVisitLimit is returned when a leg exceeds Calibration.MaxVisitsPerLeg.
	ErrVisitLimit = errors.New("leg exceeded the visit limit")
)
