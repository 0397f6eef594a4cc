package duel

import "errors"

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrMatchFull          = errors.New("match already has two players")
	ErrSelfJoin           = errors.New("cannot join a match against yourself")
	ErrMatchFinished      = errors.New("match already finished")
	ErrAlreadyQueued      = errors.New("user is already waiting in the queue")
	ErrNoProblemAvailable = errors.New("no problem available in rating range")
	ErrUpstream           = errors.New("judge api unavailable")
)
