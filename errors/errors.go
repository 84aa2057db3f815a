package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrAlreadyRegistered  = fmt.Errorf("connection id already registered")
	ErrInvalidToken       = fmt.Errorf("identity token is invalid or expired")
	ErrEmptyDictionary    = fmt.Errorf("no censored words have been loaded")
	ErrCommandChannelFull = fmt.Errorf("dispatcher command channel is full")
)
