package domain

// Application error codes. Values are part of the public contract: clients
// and message catalogs key on them, so never renumber.
const (
	CodeUnclassified = -1

	CodeUnauthorizedRequest = 1
	CodeForbiddenRequest    = 2
	CodeRateLimited         = 3
	CodeInvalidRequest      = 4
	CodeResourceNotFound    = 5
	CodeInvalidCredentials  = 6
)
