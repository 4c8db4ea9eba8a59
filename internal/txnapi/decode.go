package txnapi

import (
	"net/http"
	"slices"
)

// Endpoint names a backend call for error decoding. Each endpoint reports
// problems in its own field.
type Endpoint string

const (
	EndpointList   Endpoint = "list"
	EndpointAdd    Endpoint = "add"
	EndpointUpdate Endpoint = "update"
	EndpointDelete Endpoint = "delete"
	EndpointUpload Endpoint = "upload"
)

const FallbackMessage = "An unexpected error occurred."

// Failure is the decoded form of a failed call. Status and Message are zero
// for KindNetwork.
type Failure struct {
	Kind    Kind
	Status  int
	Message string
}

// Decode maps an error from a Client call to a Failure. Errors that did not
// come from the transport at all (a malformed success body, say) decode as
// KindNetwork: there is no usable response either way.
func Decode(endpoint Endpoint, err error) Failure {
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind == KindNetwork {
		return Failure{Kind: KindNetwork}
	}

	var msg string
	body := apiErr.Body
	switch endpoint {
	case EndpointList:
		msg = body.ErrorsText()
	case EndpointDelete:
		msg = body.ErrorText()
	case EndpointUpload:
		if apiErr.Status == http.StatusBadRequest {
			msg = body.MessageText()
		} else {
			msg = firstNonEmpty(body.ErrorText(), body.ErrorsText())
		}
	default:
		msg = firstNonEmpty(body.ErrorText(), body.ErrorsText())
	}
	if msg == "" {
		msg = FallbackMessage
	}

	return Failure{Kind: apiErr.Kind, Status: apiErr.Status, Message: msg}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Policy decides which failures of an operation the user gets to see.
type Policy struct {
	Endpoint Endpoint
	// Generic is shown when no response arrived.
	Generic string
	// Surfaced lists the statuses whose decoded message is shown.
	Surfaced []int
}

var (
	ListPolicy = Policy{
		Endpoint: EndpointList,
		Generic:  "Failed to fetch transactions. Please try again.",
		Surfaced: []int{http.StatusBadRequest},
	}
	AddPolicy = Policy{
		Endpoint: EndpointAdd,
		Generic:  "Failed to save transaction. Please try again.",
		Surfaced: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}
	UpdatePolicy = Policy{
		Endpoint: EndpointUpdate,
		Generic:  "Failed to save transaction. Please try again.",
		Surfaced: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}
	UploadPolicy = Policy{
		Endpoint: EndpointUpload,
		Generic:  "Failed to upload transactions. Please try again.",
		Surfaced: []int{http.StatusBadRequest, http.StatusNotFound},
	}
)

// UserMessage returns the text to show for err, or false when the failure
// is only logged.
func (p Policy) UserMessage(err error) (string, bool) {
	f := Decode(p.Endpoint, err)
	if f.Kind == KindNetwork {
		return p.Generic, true
	}
	if slices.Contains(p.Surfaced, f.Status) {
		return f.Message, true
	}
	return "", false
}
