package model

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestProxyError_StatusCode(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{KindConfiguration, http.StatusInternalServerError},
		{KindConnection, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			pe := &ProxyError{Kind: tt.kind, Message: "boom"}
			if got := pe.StatusCode(); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProxyError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	pe := &ProxyError{
		Kind:       KindConnection,
		Message:    "backend request failed",
		BackendURL: "http://backend.local/items",
		Err:        cause,
	}

	if !strings.Contains(pe.Error(), "backend request failed") {
		t.Errorf("Error() = %q, want it to contain the message", pe.Error())
	}
	if !errors.Is(pe, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestProxyError_ErrorWithoutCause(t *testing.T) {
	pe := &ProxyError{Kind: KindConfiguration, Message: "backend base URL not set"}
	want := "ConfigurationError: backend base URL not set"
	if pe.Error() != want {
		t.Errorf("Error() = %q, want %q", pe.Error(), want)
	}
}
