// Package ingest loads judge inputs from local files or job posting URLs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/cv"
	"github.com/spigell/cv-refiner/internal/logger"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	KindFile = "file"
	KindURL  = "url"

	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; cv-refiner)"

	maxBodyBytes = 5 << 20
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoText          = errors.New("no text could be extracted")

	supportedExtensions = []string{".txt", ".md", ".markdown", ".json"}

	blankLines = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaces     = regexp.MustCompile(` +`)

	noiseLines = map[string]struct{}{
		"home": {}, "about": {}, "careers": {}, "apply": {}, "share": {}, "save": {},
	}
)

// Content is text loaded from a source together with the kind of source it came from.
type Content struct {
	Text string
	Kind string
}

// Loader reads files and fetches URLs.
type Loader struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func New(log *zap.Logger) *Loader {
	return &Loader{
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		UserAgent:  DefaultUserAgent,
		logger:     logger.WithFields(log),
	}
}

func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load returns the text of a file or a web page.
func (l *Loader) Load(ctx context.Context, source string) (*Content, error) {
	source = strings.TrimSpace(source)
	if IsURL(source) {
		text, err := l.FetchURL(ctx, source)
		if err != nil {
			return nil, err
		}
		return &Content{Text: text, Kind: KindURL}, nil
	}

	text, err := ReadFile(source)
	if err != nil {
		return nil, err
	}
	return &Content{Text: text, Kind: KindFile}, nil
}

// ReadFile reads a text or Markdown file. JSON files are read as a CV and rendered as plain text.
func ReadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	supported := false
	for _, s := range supportedExtensions {
		if ext == s {
			supported = true
			break
		}
	}
	if !supported {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFile, ext, strings.Join(supportedExtensions, ", "))
	}

	if ext == ".json" {
		doc, err := cv.Load(path)
		if err != nil {
			return "", err
		}
		return doc.PlainText(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// FetchURL downloads a page and extracts its main text.
func (l *Loader) FetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", l.UserAgent)

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	l.logger.Debug("page fetched",
		zap.String("url", url),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int("bytes", len(body)),
	)

	if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text := CleanText(string(body))
		if text == "" {
			return "", fmt.Errorf("%w: %s", ErrNoText, url)
		}
		return text, nil
	}

	text, err := ExtractMainText(string(body))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, url)
	}
	return text, nil
}

// contentSelectors locate the posting body, most specific first.
var contentSelectors = []string{
	"#job-description",
	".job-description",
	"[class*='job']",
	"[class*='description']",
	"[id*='job']",
	"[id*='description']",
	"article",
	"main",
	"[role='main']",
}

// ExtractMainText parses HTML and renders the main content as Markdown-like text.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if s := doc.Find(selector); s.Length() > 0 {
			main = s.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	var b strings.Builder
	main.Find("h1, h2, h3, h4, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h1":
			b.WriteString("\n# " + text + "\n")
		case "h2":
			b.WriteString("\n## " + text + "\n")
		case "h3":
			b.WriteString("\n### " + text + "\n")
		case "h4":
			b.WriteString("\n#### " + text + "\n")
		case "li":
			b.WriteString("- " + text + "\n")
		default:
			b.WriteString("\n" + text + "\n")
		}
	})

	text := b.String()
	if strings.TrimSpace(text) == "" {
		text = main.Text()
	}

	return dropNoise(CleanText(text)), nil
}

// CleanText collapses runs of blank lines and repeated spaces.
func CleanText(text string) string {
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// dropNoise removes navigation leftovers such as very short lines and menu labels.
func dropNoise(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(kept) > 0 && kept[len(kept)-1] != "" {
				kept = append(kept, "")
			}
			continue
		}
		if len([]rune(line)) < 3 {
			continue
		}
		if _, ok := noiseLines[strings.ToLower(line)]; ok {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
