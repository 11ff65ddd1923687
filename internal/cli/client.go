package cli

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tictacmatch-go/internal/model"
)

// Client is a websocket connection to the server speaking the game protocol
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the server
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes an inbound event to the server
func (c *Client) Send(msg model.Inbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Next blocks until the server sends the next outbound event
func (c *Client) Next() (model.Outbound, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return model.Outbound{}, err
	}

	var event model.Outbound
	if err := json.Unmarshal(data, &event); err != nil {
		return model.Outbound{}, fmt.Errorf("decoding server event: %w", err)
	}
	return event, nil
}
