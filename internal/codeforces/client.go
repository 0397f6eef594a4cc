package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseUrl = "https://codeforces.com/api"

// ErrApiFailure covers non-OK statuses reported by the Codeforces API body.
// Callers treat it as retryable.
var ErrApiFailure = errors.New("codeforces api failure")

// ErrHandleNotFound is returned by GetUserInfo for unknown handles.
var ErrHandleNotFound = errors.New("codeforces handle not found")

type Client struct {
	http    *http.Client
	baseUrl *url.URL
}

func NewClient(rawBaseUrl string) (*Client, error) {
	if rawBaseUrl == "" {
		rawBaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(rawBaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseUrl: baseUrl,
	}, nil
}

// ListUserStatus fetches the handle's most recent submissions, newest first.
func (client *Client) ListUserStatus(ctx context.Context, handle string, count int) ([]Submission, error) {
	query := url.Values{}
	query.Set("handle", handle)
	query.Set("from", "1")
	query.Set("count", strconv.Itoa(count))

	var resp userStatusResponse
	if err := client.get(ctx, "user.status", query, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("%w: %s", ErrApiFailure, resp.Comment)
	}
	return resp.Result, nil
}

// GetUserInfo resolves a single handle to its profile, used to validate that
// a handle exists before creating an account for it.
func (client *Client) GetUserInfo(ctx context.Context, handle string) (UserInfo, error) {
	query := url.Values{}
	query.Set("handles", handle)

	var resp userInfoResponse
	if err := client.get(ctx, "user.info", query, &resp); err != nil {
		return UserInfo{}, err
	}
	if resp.Status != "OK" || len(resp.Result) == 0 {
		return UserInfo{}, fmt.Errorf("%w: %s", ErrHandleNotFound, handle)
	}
	return resp.Result[0], nil
}

// ListProblems fetches the full public problemset for catalog seeding.
func (client *Client) ListProblems(ctx context.Context) ([]Problem, error) {
	var resp problemsetResponse
	if err := client.get(ctx, "problemset.problems", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("%w: %s", ErrApiFailure, resp.Comment)
	}
	return resp.Result.Problems, nil
}

func (client *Client) get(ctx context.Context, method string, query url.Values, out any) error {
	u := client.baseUrl.JoinPath(method)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// The API reports failures with a FAILED status in a json body, usually
	// alongside a 4xx status code. Decode first so the comment survives.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status code %d", ErrApiFailure, resp.StatusCode)
		}
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}

// ProblemUrl is the canonical page for a problem.
func ProblemUrl(contestId int, index string) string {
	return fmt.Sprintf("https://codeforces.com/contest/%d/problem/%s", contestId, index)
}
