package errors

import "fmt"

var (
	ErrInvalidToken   = fmt.Errorf("invalid token")
	ErrMalformedReply = fmt.Errorf("malformed chat reply")
	ErrWorkerPanic    = fmt.Errorf("worker panic")
)
