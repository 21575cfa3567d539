package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parlakisik/event-escrow/internal/httpclient"
	"github.com/parlakisik/event-escrow/internal/model"
)

func TestVendorDirectoryClient_LookupVendors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/vendors" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "Catering" || r.URL.Query().Get("city") != "Manila" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"vendors": []model.Vendor{{ID: "v1", Name: "Feast", Category: "Catering", StartingPrice: "30000"}},
		})
	}))
	defer server.Close()

	c := NewVendorDirectoryClient(server.URL, time.Second, &httpclient.BearerTokenAuth{Token: "tok"})
	got, err := c.LookupVendors(context.Background(), "Catering", "Manila")
	if err != nil {
		t.Fatalf("LookupVendors() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Feast" {
		t.Errorf("LookupVendors() = %+v", got)
	}
}

func TestVendorDirectoryClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewVendorDirectoryClient(server.URL, time.Second, nil)
	_, err := c.LookupVendors(context.Background(), "Venue", "")
	if !httpclient.IsTransient(err) {
		t.Errorf("err = %v, want transient", err)
	}
}

func TestChatLogClient_GetChatLog(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
		wantLen int
	}{
		{name: "messages returned", status: http.StatusOK, wantLen: 2},
		{name: "unknown booking", status: http.StatusNotFound, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chats/bk_1/messages" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					_ = json.NewEncoder(w).Encode(map[string]any{
						"messages": []model.ChatMessage{
							{Sender: "client", Text: "Where are you?"},
							{Sender: "vendor", Text: "Stuck in traffic"},
						},
					})
				}
			}))
			defer server.Close()

			c := NewChatLogClient(server.URL, time.Second, nil)
			got, err := c.GetChatLog(context.Background(), "bk_1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetChatLog() err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.wantLen {
				t.Errorf("got %d messages, want %d", len(got), tt.wantLen)
			}
		})
	}
}
