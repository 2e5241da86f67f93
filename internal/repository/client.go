// Package repository fetches pending thesis submissions from the publication
// repository. A failure here is fatal to the run: without submissions there
// is no further work.
package repository

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/etp-webadmin/etapprover/internal/models"
)

const acceptHeader = "application/vnd.zenodo.v1+json"

// Client holds an authenticated session against the repository.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the repository at baseURL. The session
// cookie jar is kept for the lifetime of the client.
func NewClient(baseURL string, insecureSkipVerify bool) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport
	if insecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}, nil
}

// Login performs the form login: fetch the login page, lift the CSRF token
// out of it, post the credentials, and check that the response carries a
// logout link.
func (c *Client) Login(ctx context.Context, email, password string) error {
	loginURL := c.baseURL + "/login/?next=%2F"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read login page: %w", err)
	}

	token, err := csrfToken(strings.NewReader(string(page)))
	if err != nil {
		return fmt.Errorf("login page: %w", err)
	}

	form := url.Values{
		"email":      {email},
		"password":   {password},
		"csrf_token": {token},
		"next":       {"/deposit"},
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post login form: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}
	if !strings.Contains(strings.ToLower(string(body)), "logout") {
		return fmt.Errorf("login failed: no logout link in response")
	}
	slog.Info("repository login successful")
	return nil
}

// csrfToken finds the value of the input element with id "csrf_token".
func csrfToken(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "input" {
			var id, value string
			for _, a := range n.Attr {
				switch a.Key {
				case "id":
					id = a.Val
				case "value":
					value = a.Val
				}
			}
			if id == "csrf_token" {
				return value
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if v := find(child); v != "" {
				return v
			}
		}
		return ""
	}
	token := find(doc)
	if token == "" {
		return "", fmt.Errorf("csrf token not found")
	}
	return token, nil
}

// FetchPending returns the submissions still awaiting approval, in the
// order the repository lists them.
func (c *Client) FetchPending(ctx context.Context) ([]models.Submission, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/deposit/depositions", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch submissions: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	all, err := parseDepositions(data)
	if err != nil {
		return nil, err
	}

	var pending []models.Submission
	for _, sub := range all {
		if sub.ApprovalState == models.ApprovalPending {
			pending = append(pending, sub)
		}
	}
	slog.Info("submissions fetched", "total", len(all), "pending", len(pending))
	return pending, nil
}
