package txnapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	// KindNetwork means no response was received at all.
	KindNetwork Kind = iota + 1
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// ErrorBody is the backend's error envelope. Each field may be absent and
// `errors` comes back as a string, a list, or a list of objects depending on
// the endpoint.
type ErrorBody struct {
	Error   json.RawMessage `json:"error,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

func (b ErrorBody) ErrorText() string   { return rawText(b.Error) }
func (b ErrorBody) ErrorsText() string  { return rawText(b.Errors) }
func (b ErrorBody) MessageText() string { return rawText(b.Message) }

// Error is returned by every Client call that did not get a 2xx answer.
type Error struct {
	Kind   Kind
	Status int
	Body   ErrorBody
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	}
	msg := e.Body.ErrorText()
	if msg == "" {
		msg = e.Body.ErrorsText()
	}
	if msg == "" {
		msg = e.Body.MessageText()
	}
	if msg == "" {
		return fmt.Sprintf("backend answered %d", e.Status)
	}
	return fmt.Sprintf("backend answered %d: %s", e.Status, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError unwraps err into a *Error if there is one in the chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// rawText turns a loosely typed JSON field into display text. Null and empty
// values give "".
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if t := rawText(item); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, ", ")
	}

	var obj struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Msg != "" {
			return obj.Msg
		}
	}

	return string(raw)
}
