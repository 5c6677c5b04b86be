package github

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	jsonAccept      = "application/vnd.github+json"
	rawAccept       = "application/vnd.github.v3.raw"
	contentEncoding = "gzip"
	apiVersion      = "2022-11-28"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d %s", e.Code, e.Body)
}

func (c *Client) getJSON(ctx context.Context, u string, q url.Values, target any) error {
	body, _, err := c.get(ctx, u, q, jsonAccept)
	if err != nil {
		return err
	}
	return decodeJSON(body, target)
}

// get performs a GET request and returns the decoded body and its content type.
func (c *Client) get(ctx context.Context, u string, q url.Values, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", accept)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, "", err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	return req
}

func decodeJSON(data []byte, target any) error {
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// addPage returns a copy of q with the page parameter set.
func addPage(q url.Values, page int) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	out.Set("page", strconv.Itoa(page))

	return out
}
