package txnapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clientErr(status int, body string) error {
	e := &Error{Kind: KindClient, Status: status}
	if status >= 500 {
		e.Kind = KindServer
	}
	if err := json.Unmarshal([]byte(body), &e.Body); err != nil {
		panic(err)
	}
	return fmt.Errorf("wrapped: %w", e)
}

func TestDecodePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		err      error
		want     Failure
	}{
		{
			name:     "network",
			endpoint: EndpointAdd,
			err:      &Error{Kind: KindNetwork, Err: errors.New("dial tcp: refused")},
			want:     Failure{Kind: KindNetwork},
		},
		{
			name:     "not an api error",
			endpoint: EndpointList,
			err:      errors.New("decode: bad json"),
			want:     Failure{Kind: KindNetwork},
		},
		{
			name:     "list uses errors",
			endpoint: EndpointList,
			err:      clientErr(400, `{"error":"ignored","errors":"Invalid frequency"}`),
			want:     Failure{Kind: KindClient, Status: 400, Message: "Invalid frequency"},
		},
		{
			name:     "list errors as list of objects",
			endpoint: EndpointList,
			err:      clientErr(400, `{"errors":[{"message":"page must be positive"},{"msg":"limit too large"}]}`),
			want:     Failure{Kind: KindClient, Status: 400, Message: "page must be positive, limit too large"},
		},
		{
			name:     "add prefers error over errors",
			endpoint: EndpointAdd,
			err:      clientErr(409, `{"error":"Duplicate transaction","errors":"x"}`),
			want:     Failure{Kind: KindClient, Status: 409, Message: "Duplicate transaction"},
		},
		{
			name:     "update falls back to errors",
			endpoint: EndpointUpdate,
			err:      clientErr(400, `{"errors":["Amount must be positive"]}`),
			want:     Failure{Kind: KindClient, Status: 400, Message: "Amount must be positive"},
		},
		{
			name:     "upload 400 uses message",
			endpoint: EndpointUpload,
			err:      clientErr(400, `{"error":"ignored","message":"No file uploaded"}`),
			want:     Failure{Kind: KindClient, Status: 400, Message: "No file uploaded"},
		},
		{
			name:     "upload 400 without message",
			endpoint: EndpointUpload,
			err:      clientErr(400, `{"error":"ignored"}`),
			want:     Failure{Kind: KindClient, Status: 400, Message: FallbackMessage},
		},
		{
			name:     "upload 404 uses error then errors",
			endpoint: EndpointUpload,
			err:      clientErr(404, `{"errors":"route missing"}`),
			want:     Failure{Kind: KindClient, Status: 404, Message: "route missing"},
		},
		{
			name:     "server error keeps kind",
			endpoint: EndpointDelete,
			err:      clientErr(503, `{}`),
			want:     Failure{Kind: KindServer, Status: 503, Message: FallbackMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.endpoint, tt.err))
		})
	}
}

func TestPolicyUserMessage(t *testing.T) {
	msg, ok := UploadPolicy.UserMessage(&Error{Kind: KindNetwork})
	assert.True(t, ok)
	assert.Equal(t, "Failed to upload transactions. Please try again.", msg)

	msg, ok = UploadPolicy.UserMessage(clientErr(404, `{"error":"Not found"}`))
	assert.True(t, ok)
	assert.Equal(t, "Not found", msg)

	_, ok = UploadPolicy.UserMessage(clientErr(500, `{"error":"boom"}`))
	assert.False(t, ok)

	_, ok = ListPolicy.UserMessage(clientErr(404, `{"errors":"gone"}`))
	assert.False(t, ok)

	msg, ok = AddPolicy.UserMessage(clientErr(409, `{}`))
	assert.True(t, ok)
	assert.Equal(t, FallbackMessage, msg)
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindClient, Status: 404}
	assert.Equal(t, "backend answered 404", err.Error())

	json.Unmarshal([]byte(`{"message":"nope"}`), &err.Body)
	assert.Equal(t, "backend answered 404: nope", err.Error())
	assert.Equal(t, "client", KindClient.String())
}
