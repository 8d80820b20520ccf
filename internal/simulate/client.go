package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/okian/wardflow/internal/domain/model"
)

// Error codes returned by the API that the drain loop reacts to.
const (
	codeEmptyQueue = "empty_queue"
	codePoolFull   = "pool_full"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// registration is the body of POST /api/patients.
type registration struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Condition string `json:"condition"`
	Critical  bool   `json:"critical"`
}

// client talks to the scheduler API and keeps the session cookie.
type client struct {
	http *http.Client
	base string
}

func newClient(baseURL string, timeout time.Duration) (*client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &client{
		http: &http.Client{Timeout: timeout, Jar: jar},
		base: strings.TrimRight(baseURL, "/"),
	}, nil
}

// do sends body as JSON and decodes a 2xx answer into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *client) login(ctx context.Context, user, password string) error {
	return c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": user,
		"password": password,
	}, nil)
}

func (c *client) register(ctx context.Context, r registration) (model.Patient, error) {
	var p model.Patient
	err := c.do(ctx, http.MethodPost, "/api/patients", r, &p)
	return p, err
}

func (c *client) admitNext(ctx context.Context) (model.Patient, error) {
	var p model.Patient
	err := c.do(ctx, http.MethodPost, "/api/admissions", nil, &p)
	return p, err
}

func (c *client) discharge(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/api/patients/"+strconv.Itoa(id)+"/discharge", nil, nil)
}
