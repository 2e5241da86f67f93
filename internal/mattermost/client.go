// Package mattermost implements the subset of the Mattermost v4 REST API the
// notifier needs: bot identity, exact username lookup, direct messages and
// group conversations.
package mattermost

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// User is the subset of a Mattermost user record the notifier reads.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type channel struct {
	ID string `json:"id"`
}

// Client talks to one Mattermost instance with a bot token. It is not safe
// for concurrent use; the notifier is strictly sequential anyway.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
	bot    *User
}

// NewClient creates a client for the given API base URL (".../api", without
// the /v4 suffix). insecureSkipVerify accepts self-signed certificates.
func NewClient(apiURL, token string, insecureSkipVerify bool) *Client {
	transport := http.DefaultTransport
	if insecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		apiURL: apiURL,
		token:  token,
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// Connect verifies the token by fetching the bot's own user record. It must
// be called before any send operation.
func (c *Client) Connect(ctx context.Context) (*User, error) {
	var me User
	if err := c.get(ctx, "/v4/users/me", &me); err != nil {
		return nil, fmt.Errorf("mattermost connect: %w", err)
	}
	c.bot = &me
	slog.Info("connected to mattermost", "bot", me.Username, "bot_id", me.ID)
	return &me, nil
}

// LookupUser reports whether an exact username exists. A 404 is a definite
// "no"; transport and server errors are returned so the caller can decide
// how to treat an unconfirmed candidate.
func (c *Client) LookupUser(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v4/users/username/"+name, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("lookup %q: unexpected status %d", name, resp.StatusCode)
	}
}

// SendDirect sends a direct message to one user.
func (c *Client) SendDirect(ctx context.Context, name, message string) error {
	if c.bot == nil {
		return fmt.Errorf("send direct: not connected")
	}
	user, err := c.userByName(ctx, name)
	if err != nil {
		return fmt.Errorf("send direct to %q: %w", name, err)
	}
	var ch channel
	if err := c.post(ctx, "/v4/channels/direct", []string{c.bot.ID, user.ID}, &ch); err != nil {
		return fmt.Errorf("create direct channel with %q: %w", name, err)
	}
	return c.createPost(ctx, ch.ID, message)
}

// SendGroup sends one message to a group conversation with all named users.
// The bot itself is added as a member, as the API requires.
func (c *Client) SendGroup(ctx context.Context, names []string, message string) error {
	if c.bot == nil {
		return fmt.Errorf("send group: not connected")
	}
	ids := []string{c.bot.ID}
	for _, name := range names {
		user, err := c.userByName(ctx, name)
		if err != nil {
			return fmt.Errorf("send group, member %q: %w", name, err)
		}
		ids = append(ids, user.ID)
	}
	var ch channel
	if err := c.post(ctx, "/v4/channels/group", ids, &ch); err != nil {
		return fmt.Errorf("create group channel: %w", err)
	}
	return c.createPost(ctx, ch.ID, message)
}

func (c *Client) createPost(ctx context.Context, channelID, message string) error {
	payload := map[string]string{
		"channel_id": channelID,
		"message":    message,
	}
	if err := c.post(ctx, "/v4/posts", payload, nil); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (c *Client) userByName(ctx context.Context, name string) (*User, error) {
	var user User
	if err := c.get(ctx, "/v4/users/username/"+name, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
