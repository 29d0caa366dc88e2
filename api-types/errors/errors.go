package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorResponse is the body of every non-2xx response from yardd and inferd.
type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

// ErrorMessage tells a client what went wrong and what to do about it.
//
// Cause is server-side context only. It is folded into the message text on
// marshal and never transported as a structured field.
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	See    string `json:"see,omitempty"`
	Cause  error  `json:"-"`
}

func (em *ErrorMessage) UnmarshalJSON(b []byte) error {
	f := new(struct {
		Reason *string `json:"reason"`
		Advice *string `json:"advice,omitempty"`
		See    *string `json:"see,omitempty"`
	})
	if err := json.Unmarshal(b, f); err != nil {
		return err
	}

	if f.Reason == nil {
		return fmt.Errorf(`required field missing: "reason"`)
	}
	em.Reason = *f.Reason

	if f.Advice != nil {
		em.Advice = *f.Advice
	}
	if f.See != nil {
		em.See = *f.See
	}

	return nil
}

func (em ErrorMessage) String() string {
	lines := []string{em.Reason}
	if em.Advice != "" {
		lines = append(lines, em.Advice)
	}
	if em.See != "" {
		lines = append(lines, "see: "+em.See)
	}
	if em.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", em.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (em ErrorMessage) Error() string {
	return em.String()
}

func (em ErrorMessage) Unwrap() error {
	return em.Cause
}
