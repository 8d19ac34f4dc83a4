package model

import "fmt"

// InputError reports a caller mistake. Nothing has been written when it is returned.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// StoreError wraps a failure reported by the persistence layer
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Message is the underlying store message, without the operation prefix
func (e *StoreError) Message() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}
