package server

var (
	ErrStatusInvalidPayload string = "INVALID_PAYLOAD"
	ErrStatusAlreadyQueued  string = "ALREADY_QUEUED"
	ErrStatusMatchmaking    string = "MATCHMAKING_FAILED"
	ErrStatusUnknownUser    string = "UNKNOWN_USER"
	ErrStatusInvalidEvent   string = "INVALID_EVENT"
)
