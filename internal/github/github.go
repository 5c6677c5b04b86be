// Package github downloads repository READMEs used as tailoring context.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/logger"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.github.com"
	userAgent = "spigell/cv-refiner"
	// Max value for repositories per page.
	perPage = 100
)

var ErrNotFound = errors.New("readme not found")

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client. An empty token makes anonymous requests.
func New(token string, log *zap.Logger) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger.WithFields(log),
		UserAgent: userAgent,
	}
}

type readmePayload struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Readme returns the README of a repository given as owner/name.
func (c *Client) Readme(ctx context.Context, repo string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/repos/%s/%s/readme", c.APIURL, url.PathEscape(owner), url.PathEscape(name))
	body, contentType, err := c.get(ctx, u, nil, rawAccept)
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return "", fmt.Errorf("%w for %s", ErrNotFound, repo)
		}
		return "", fmt.Errorf("fetching readme for %s: %w", repo, err)
	}

	if !strings.HasPrefix(contentType, "application/json") {
		return strings.ToValidUTF8(string(body), ""), nil
	}

	var payload readmePayload
	if err := decodeJSON(body, &payload); err != nil {
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decoding readme for %s: %w", repo, err)
	}
	return strings.ToValidUTF8(string(decoded), ""), nil
}

// DownloadReadmes saves each repository README to dir as owner__repo__README.md and returns
// the written paths. Blank entries are skipped.
func (c *Client) DownloadReadmes(ctx context.Context, repos []string, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for _, repo := range repos {
		repo = strings.TrimSpace(repo)
		if repo == "" {
			continue
		}

		content, err := c.Readme(ctx, repo)
		if err != nil {
			return paths, err
		}

		owner, name, _ := splitRepo(repo)
		path := filepath.Join(dir, fmt.Sprintf("%s__%s__README.md", owner, name))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return paths, err
		}

		c.logger.Info("readme downloaded", zap.String("repo", repo), zap.String("path", path))
		paths = append(paths, path)
	}

	return paths, nil
}

type repository struct {
	FullName string `json:"full_name"`
	Fork     bool   `json:"fork"`
	Archived bool   `json:"archived"`
}

// UserRepos lists the public repositories owned by user, skipping forks and archived ones.
func (c *Client) UserRepos(ctx context.Context, user string) ([]string, error) {
	u := fmt.Sprintf("%s/users/%s/repos", c.APIURL, url.PathEscape(user))
	q := url.Values{}
	q.Set("type", "owner")
	q.Set("per_page", fmt.Sprint(perPage))

	var names []string
	for page := 1; ; page++ {
		var repos []repository
		if err := c.getJSON(ctx, u, addPage(q, page), &repos); err != nil {
			return nil, fmt.Errorf("listing repositories of %s: %w", user, err)
		}

		for _, r := range repos {
			if r.Fork || r.Archived {
				continue
			}
			names = append(names, r.FullName)
		}

		if len(repos) < perPage {
			break
		}
		c.logger.Debug("additional request needed", zap.Int("page", page+1))
	}

	return names, nil
}

func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	return owner, name, nil
}
