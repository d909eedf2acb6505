package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sketchwire/sketchwire/internal/domain"
)

type historyMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type historyResponse struct {
	Messages []historyMessage `json:"messages"`
	RoomName string           `json:"roomName"`
}

// fetchHistory pulls the room's replay page, ascending. The result
// feeds the same reducer that live events go through.
func (c *Client) fetchHistory(ctx context.Context) ([]domain.ShapeEvent, string, error) {
	if c.cfg.HistoryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HistoryTimeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/chats/%s", c.cfg.HistoryURL, c.cfg.Room)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, "", wrapError(ErrorHistory, "create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", wrapError(ErrorHistory, "history request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", wrapError(ErrorHistory, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", newError(ErrorHistory, fmt.Sprintf("history fetch failed (status %d)", resp.StatusCode))
	}

	var page historyResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", wrapError(ErrorSerialization, "unmarshal history", err)
	}

	events := make([]domain.ShapeEvent, 0, len(page.Messages))
	for _, m := range page.Messages {
		events = append(events, domain.ShapeEvent{
			RoomID:  domain.RoomID(c.cfg.Room),
			Kind:    domain.EventKind(m.Type),
			Message: m.Message,
		})
	}
	return events, page.RoomName, nil
}
