package distantrace

import "fmt"

// AuthError is fatal for the whole crawl: without a session nothing
// else can be fetched.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %s", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ParseError marks a page whose markup did not match expectations. it
// aborts the participant page it occurred on, never the whole crawl.
type ParseError struct {
	What  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	msg := "parse: " + e.What
	if e.Value != "" {
		msg = fmt.Sprintf("%s (%q)", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }
