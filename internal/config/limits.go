package config

const (
	// MaxMessageLength is the maximum rune length of one user message.
	// Long pasted problems are fine; unbounded input is not.
	MaxMessageLength = 4000

	// HistoryWindow is the number of stored turns sent upstream with each
	// completion request. Sending the full history grows without bound and
	// eventually trips upstream token limits on long conversations.
	HistoryWindow = 12

	// KeepTurns is the default trim size: the last 3 exchanges, two turns
	// each (one user + one assistant).
	KeepTurns = 6

	// DefaultMaxTokens bounds the completion output. Deployments may set
	// MAX_TOKENS anywhere in the 1000-2000 range.
	DefaultMaxTokens = 1500
)
