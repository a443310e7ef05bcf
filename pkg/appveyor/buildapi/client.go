// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package buildapi is a minimal client for the AppVeyor REST API; just enough to ask the build
// history questions that the stale-PR guard needs.
//
// https://www.appveyor.com/docs/api/
package buildapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	// Token is an API bearer token; the history endpoint works without one for public
	// projects.
	Token string
}

const DefaultBaseURL = "https://ci.appveyor.com"

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/datawire/avbuild/pkg/appveyor/buildapi"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

func (c Client) get(ctx context.Context, requestPath string, out interface{}) (err error) {
	c.fillDefaults()
	requestURL := c.BaseURL + requestPath
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()

	// 1. Build the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	// 2. Do the networking
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return err
	}
	if err := resp.Body.Close(); err != nil {
		return err
	}

	// 3. Validate and decode the result
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(content, out); err != nil {
		return err
	}
	return nil
}

// Build is one entry in a project's build history.
type Build struct {
	BuildID     int    `json:"buildId"`
	BuildNumber int    `json:"buildNumber"`
	Version     string `json:"version"`
	Status      string `json:"status"`
	Branch      string `json:"branch"`

	// PullRequestID is empty for non-PR builds.  The API returns it as a string.
	PullRequestID string `json:"pullRequestId"`

	CommitID string `json:"commitId"`
	Created  string `json:"created"`
}

// ProjectHistory returns the most recent `records` builds of a project, newest first.
func (c Client) ProjectHistory(ctx context.Context, account, slug string, records int) ([]Build, error) {
	var history struct {
		Builds []Build `json:"builds"`
	}
	requestPath := fmt.Sprintf("/api/projects/%s/%s/history?recordsNumber=%d",
		url.PathEscape(account), url.PathEscape(slug), records)
	if err := c.get(ctx, requestPath, &history); err != nil {
		return nil, err
	}
	return history.Builds, nil
}
