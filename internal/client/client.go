// Package client provides an API client for the daemon's unix socket.
// The CLI subcommands are built on it; the wire types come from
// internal/api so client and server cannot drift apart.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/burrow/internal/api"
	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/events"
	"grimm.is/burrow/internal/netstate"
)

// Client talks to a running daemon over its unix socket.
type Client struct {
	socketPath string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the daemon socket at path. An empty path
// uses the default socket location.
func New(path string, opts ...Option) *Client {
	if path == "" {
		path = brand.GetSocketPath()
	}
	c := &Client{
		socketPath: path,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
	Errno   string
}

func (e *APIError) Error() string {
	if e.Errno != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Errno)
	}
	return e.Message
}

// IsConflict reports whether the daemon rejected the request because
// the resource already exists.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// IsNotFound reports whether the daemon could not find the resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	// The host in the URL is ignored; the transport dials the socket.
	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", brand.UserAgent(brand.Version))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.socketPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
			Errno string `json:"errno,omitempty"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: body.Error, Errno: body.Errno}
		}
		return &APIError{Status: resp.StatusCode, Message: "request failed: " + resp.Status}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Status returns the daemon's status.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNamespaces returns the named namespaces.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/v1/netns", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateNamespace creates a named namespace.
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/netns", api.NamespaceRequest{Name: name}, nil)
}

// RemoveNamespace removes a named namespace.
func (c *Client) RemoveNamespace(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/v1/netns/"+name, nil, nil)
}

// ListInterfaces returns the interfaces in a namespace.
func (c *Client) ListInterfaces(ctx context.Context, ns string) ([]api.InterfaceResponse, error) {
	var out []api.InterfaceResponse
	if err := c.do(ctx, http.MethodGet, "/v1/netns/"+ns+"/interfaces", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInterface creates an interface in a namespace.
func (c *Client) CreateInterface(ctx context.Context, ns string, req netstate.InterfaceRequest) (*api.InterfaceResponse, error) {
	var out api.InterfaceResponse
	if err := c.do(ctx, http.MethodPost, "/v1/netns/"+ns+"/interfaces", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteInterface removes an interface.
func (c *Client) DeleteInterface(ctx context.Context, ns, dev string) error {
	return c.do(ctx, http.MethodDelete, "/v1/netns/"+ns+"/interfaces/"+dev, nil, nil)
}

// SetInterfaceUp brings an interface up.
func (c *Client) SetInterfaceUp(ctx context.Context, ns, dev string) error {
	return c.do(ctx, http.MethodPost, "/v1/netns/"+ns+"/interfaces/"+dev+"/up", nil, nil)
}

// ListAddresses returns the addresses on a device, or every address in
// the namespace when dev is empty.
func (c *Client) ListAddresses(ctx context.Context, ns, dev string) ([]api.AddressResponse, error) {
	path := "/v1/netns/" + ns + "/addresses"
	if dev != "" {
		path = "/v1/netns/" + ns + "/interfaces/" + dev + "/addresses"
	}
	var out []api.AddressResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAddress assigns an address to a device.
func (c *Client) AddAddress(ctx context.Context, ns, dev string, req api.AddressRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/netns/"+ns+"/interfaces/"+dev+"/addresses", req, nil)
}

// DeleteAddress removes an address from a device.
func (c *Client) DeleteAddress(ctx context.Context, ns, dev string, req api.AddressRequest) error {
	return c.do(ctx, http.MethodDelete, "/v1/netns/"+ns+"/interfaces/"+dev+"/addresses", req, nil)
}

// ListRules returns the policy rules for a family (4 or 6).
func (c *Client) ListRules(ctx context.Context, ns string, family int) ([]api.RuleResponse, error) {
	var out []api.RuleResponse
	path := fmt.Sprintf("/v1/netns/%s/rules?family=%d", ns, family)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRule adds a policy rule.
func (c *Client) AddRule(ctx context.Context, ns string, req api.RuleRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/netns/"+ns+"/rules", req, nil)
}

// DeleteRule removes the first rule matching the request.
func (c *Client) DeleteRule(ctx context.Context, ns string, req api.RuleRequest) error {
	return c.do(ctx, http.MethodDelete, "/v1/netns/"+ns+"/rules", req, nil)
}

// History returns persisted events since the given time.
func (c *Client) History(ctx context.Context, since time.Time, limit int) ([]events.StoredEvent, error) {
	path := fmt.Sprintf("/v1/events/history?limit=%d", limit)
	if !since.IsZero() {
		path += "&since=" + since.UTC().Format(time.RFC3339)
	}
	var out []events.StoredEvent
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Events opens the live event stream. The returned channel closes when
// ctx is done or the connection drops.
func (c *Client) Events(ctx context.Context, types ...string) (<-chan events.Event, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", c.socketPath)
		},
	}

	url := "ws://unix/v1/events"
	if len(types) > 0 {
		url += "?types=" + types[0]
		for _, t := range types[1:] {
			url += "," + t
		}
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	ch := make(chan events.Event, 16)
	go func() {
		defer close(ch)
		defer conn.Close()
		go func() {
			<-ctx.Done()
			conn.Close()
		}()
		for {
			var ev events.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
