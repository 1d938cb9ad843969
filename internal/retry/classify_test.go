package retry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatusRetryable(t *testing.T) {
	retryable := []int{408, 429, 500, 502, 503, 504}
	for _, s := range retryable {
		if !StatusRetryable(s) {
			t.Errorf("expected %d to be retryable", s)
		}
	}

	notRetryable := []int{200, 201, 301, 400, 401, 403, 404, 409, 422}
	for _, s := range notRetryable {
		if StatusRetryable(s) {
			t.Errorf("expected %d to not be retryable", s)
		}
	}
}

func TestTransportRetryableTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 1 * time.Millisecond}
	_, err := client.Get(srv.URL)
	if err == nil {
		t.Fatal("expected client timeout error")
	}
	if !TransportRetryable(err) {
		t.Fatalf("expected timeout error to be retryable: %v", err)
	}
}

func TestTransportRetryableConnectFailure(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{Timeout: 2 * time.Second}
	_, err = client.Do(req)
	if err == nil {
		t.Fatal("expected connection refused error")
	}
	if !TransportRetryable(err) {
		t.Fatalf("expected connect failure to be retryable: %v", err)
	}
}

func TestTransportNotRetryableForNilOrGeneric(t *testing.T) {
	if TransportRetryable(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if TransportRetryable(errors.New("decode failed")) {
		t.Fatal("generic non-net error must not be retryable")
	}
}
