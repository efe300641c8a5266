package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"odyssey-quiz-service/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Client resolves users against the site's user-management service over
// HTTP. It implements app.Directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type userPayload struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

func (c *Client) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	endpoint := c.baseURL + "/api/users/by-email?email=" + url.QueryEscape(email)
	return c.fetch(ctx, endpoint)
}

func (c *Client) UserByID(ctx context.Context, id int64) (domain.User, error) {
	endpoint := c.baseURL + "/api/users/" + strconv.FormatInt(id, 10)
	return c.fetch(ctx, endpoint)
}

func (c *Client) fetch(ctx context.Context, endpoint string) (domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.User{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("user directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.User{}, domain.ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.User{}, fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.User{}, fmt.Errorf("user directory decode: %w", err)
	}
	return domain.User{
		ID:       payload.ID,
		Email:    payload.Email,
		Username: payload.Username,
		Admin:    payload.Admin,
	}, nil
}
