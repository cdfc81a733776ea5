// Package discord is a minimal REST client for the two things the
// bot needs from the chat platform: resolving a channel id to a
// sendable destination and posting a message to it. The gateway
// connection is deliberately not part of this client.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://discord.com/api/v10"

// Channel types that can receive messages.
const (
	channelTypeGuildText         = 0
	channelTypeGuildAnnouncement = 5
)

// Channel is the subset of the channel object the bot reads.
type Channel struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
	Name string `json:"name"`
}

// Sendable reports whether the channel accepts text messages.
func (c *Channel) Sendable() bool {
	return c.Type == channelTypeGuildText || c.Type == channelTypeGuildAnnouncement
}

// Message is a channel message payload: plain content, rich embeds,
// or both.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// ResolveError means a channel id could not be resolved to a live
// channel.
type ResolveError struct {
	ChannelID  int64
	StatusCode int
	Body       string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("discord: resolving channel %d: status %d: %s", e.ChannelID, e.StatusCode, e.Body)
}

// Client talks to the Discord REST API with a bot token. Resolved
// channels are cached; the first send to a channel costs one extra
// lookup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger

	mu       sync.Mutex
	channels map[int64]*Channel
}

func NewClient(baseURL, botToken string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      botToken,
		logger:     logger,
		channels:   make(map[int64]*Channel),
	}
}

// ResolveChannel returns the channel for the given id, fetching it on
// cache miss.
func (c *Client) ResolveChannel(ctx context.Context, id int64) (*Channel, error) {
	c.mu.Lock()
	if ch, ok := c.channels[id]; ok {
		c.mu.Unlock()
		return ch, nil
	}
	c.mu.Unlock()

	reqURL := fmt.Sprintf("%s/channels/%d", c.baseURL, id)
	body, status, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching channel %d: %w", id, err)
	}
	if status != http.StatusOK {
		return nil, &ResolveError{ChannelID: id, StatusCode: status, Body: string(body)}
	}

	var ch Channel
	if err := json.Unmarshal(body, &ch); err != nil {
		return nil, fmt.Errorf("decoding channel %d: %w", id, err)
	}

	c.mu.Lock()
	c.channels[id] = &ch
	c.mu.Unlock()

	c.logger.Debug("channel resolved",
		zap.Int64("channel", id),
		zap.String("name", ch.Name),
		zap.Int("type", ch.Type))

	return &ch, nil
}

// Send posts a message to the channel.
func (c *Client) Send(ctx context.Context, channelID int64, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	reqURL := fmt.Sprintf("%s/channels/%d/messages", c.baseURL, channelID)
	body, status, err := c.do(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return fmt.Errorf("sending to channel %d: %w", channelID, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("discord: send to channel %d failed with status %d: %s", channelID, status, string(body))
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp.StatusCode, readErr
	}

	return body, resp.StatusCode, nil
}
