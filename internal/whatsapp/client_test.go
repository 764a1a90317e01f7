package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSendMessage(t *testing.T) {
	var gotAuth string
	var gotBody Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/send-message" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{Endpoint: srv.URL, APIToken: "secret-token"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg := Message{PhoneNumber: "201012345678", Message: "your appointment is confirmed"}
	if err := client.SendMessage(context.Background(), msg); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.PhoneNumber != msg.PhoneNumber || gotBody.Message != msg.Message {
		t.Errorf("body = %+v, want %+v", gotBody, msg)
	}
}

func TestClientSendMessageGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := New(Config{Endpoint: srv.URL, APIToken: "secret-token"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.SendMessage(context.Background(), Message{PhoneNumber: "201012345678", Message: "hi"}); err == nil {
		t.Fatal("SendMessage returned nil error for 429 response")
	}
}

func TestClientRequiresConfig(t *testing.T) {
	if _, err := New(Config{APIToken: "tok"}); err == nil {
		t.Error("New accepted empty endpoint")
	}
	if _, err := New(Config{Endpoint: "https://gw.example.com"}); err == nil {
		t.Error("New accepted empty token")
	}
}
