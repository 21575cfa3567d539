package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/parlakisik/event-escrow/internal/httpclient"
	"github.com/parlakisik/event-escrow/internal/model"
)

// ChatLogClient fetches the client/vendor conversation for a booking.
type ChatLogClient struct {
	http *httpclient.Client
}

func NewChatLogClient(baseURL string, timeout time.Duration, auth httpclient.AuthProvider) *ChatLogClient {
	return &ChatLogClient{http: httpclient.New("chat-service", baseURL, timeout, auth)}
}

func (c *ChatLogClient) GetChatLog(ctx context.Context, bookingID string) ([]model.ChatMessage, error) {
	var out struct {
		Messages []model.ChatMessage `json:"messages"`
	}
	path := "/v1/chats/" + url.PathEscape(bookingID) + "/messages"
	if err := c.http.GetJSON(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get chat log: %w", err)
	}
	return out.Messages, nil
}
