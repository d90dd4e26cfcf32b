package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or has finished.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNoActiveQuestion is returned when an answer arrives with no question in flight.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrSessionComplete indicates the session has no more questions to serve.
	ErrSessionComplete = errors.New("quiz session complete")
	// ErrUpgradeUnavailable indicates the learner is already at the highest level.
	ErrUpgradeUnavailable = errors.New("already at maximum level")
	// ErrPoolEmpty indicates no questions could be loaded.
	ErrPoolEmpty = errors.New("question pool is empty")
	// ErrResultNotFound indicates no stored result exists for a user.
	ErrResultNotFound = errors.New("result not found")
)
