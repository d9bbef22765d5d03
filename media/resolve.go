package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrUnresolvable = errors.New("page does not reference a playable video")

// ResolvePage fetches a webpage and looks for the video it is presenting.
// Open Graph tags win, then twitter player cards, then the first embedded
// YouTube iframe. Only results that classify as playable are returned.
func ResolvePage(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching page", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	candidates := []string{}
	for _, sel := range []string{
		`meta[property="og:video:secure_url"]`,
		`meta[property="og:video:url"]`,
		`meta[property="og:video"]`,
		`meta[name="twitter:player"]`,
		`meta[property="twitter:player"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			candidates = append(candidates, content)
		}
	}
	doc.Find("iframe[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if IsEmbeddable(absolute(res.Request.URL, src)) {
			candidates = append(candidates, src)
			return false
		}
		return true
	})

	for _, c := range candidates {
		link := absolute(res.Request.URL, strings.TrimSpace(c))
		if IsEmbeddable(link) && YouTubeID(link) != "" {
			return link, nil
		}
		if IsDirectFile(link) {
			return link, nil
		}
		slog.Debug("Skipping unplayable page candidate", slog.String("candidate", link))
	}
	return "", ErrUnresolvable
}

func absolute(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
