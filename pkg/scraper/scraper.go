// Package scraper provides functionality to fetch data from URLs and download files
package scraper

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// userAgent is sent with every request; the stats site rejects bare clients
const userAgent = "Mozilla/5.0 (compatible; darthub)"

var client = &http.Client{
	Timeout: 30 * time.Second,
}

// get sends a GET request with browser-like headers
func get(url, accept string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching URL: %w", err)
	}

	log.Printf("HTTP Status: %d (%s)", resp.StatusCode, resp.Status)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("non-200 status code: %d %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// FetchURL downloads the HTML content from a URL and returns it as a string
func FetchURL(url string) (string, error) {
	log.Printf("Fetching URL: %s", url)

	resp, err := get(url, "text/html")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	contentLength := resp.Header.Get("Content-Length")
	log.Printf("Content-Type: %s, Content-Length: %s bytes", contentType, contentLength)

	return string(body), nil
}

// FetchJSON downloads a JSON document from a URL
func FetchJSON(url string) ([]byte, error) {
	log.Printf("Fetching JSON: %s", url)

	resp, err := get(url, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return body, nil
}

// DownloadPDF downloads a PDF file from a URL and saves it locally
func DownloadPDF(url string, localPath string) error {
	log.Printf("Downloading PDF from %s to %s", url, localPath)

	resp, err := get(url, "application/pdf")
	if err != nil {
		return fmt.Errorf("error fetching PDF: %w", err)
	}
	defer resp.Body.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("error saving PDF to file: %w", err)
	}

	log.Printf("Successfully downloaded PDF to %s", localPath)
	return nil
}

// SaveContentToFile saves content to a file
func SaveContentToFile(filename string, content string) error {
	return os.WriteFile(filename, []byte(content), 0644)
}

// ExtractPlayerLinks extracts links to player detail pages from a ranking page
func ExtractPlayerLinks(htmlContent string) map[string]string {
	links := make(map[string]string)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		log.Printf("Error parsing HTML content: %v", err)
		return links
	}

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}

		if strings.Contains(href, "/player/details/") || strings.Contains(href, "/player/stats/") {
			name := strings.TrimSpace(s.Text())
			if name == "" {
				return
			}
			links[href] = name
		}
	})

	log.Printf("Extracted %d player links", len(links))
	return links
}

// ResolveRelativeURL resolves a relative URL to an absolute URL
func ResolveRelativeURL(baseURL, relativeURL string) string {
	if strings.HasPrefix(relativeURL, "http://") || strings.HasPrefix(relativeURL, "https://") {
		return relativeURL
	}

	if !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		baseURL = "https://" + baseURL
	}

	// Root-relative links keep only scheme and host
	if strings.HasPrefix(relativeURL, "/") {
		schemeEnd := strings.Index(baseURL, "://") + 3
		if hostEnd := strings.Index(baseURL[schemeEnd:], "/"); hostEnd >= 0 {
			return baseURL[:schemeEnd+hostEnd] + relativeURL
		}
		return baseURL + relativeURL
	}

	baseDir := baseURL
	lastSlashIndex := strings.LastIndex(baseURL, "/")
	if lastSlashIndex > strings.Index(baseURL, "://")+2 && lastSlashIndex < len(baseURL)-1 {
		baseDir = baseURL[:lastSlashIndex+1]
	} else if !strings.HasSuffix(baseDir, "/") {
		baseDir += "/"
	}

	return baseDir + relativeURL
}

var playerIDPattern = regexp.MustCompile(`/player/(?:details|stats)/(\d+)`)

// ExtractPlayerID extracts the numeric player key from a player URL
func ExtractPlayerID(url string) int64 {
	matches := playerIDPattern.FindStringSubmatch(url)
	if len(matches) > 1 {
		id, err := strconv.ParseInt(matches[1], 10, 64)
		if err == nil {
			return id
		}
	}
	return 0
}

// StatsURL builds the stats page URL for a player key
func StatsURL(base string, id int64) string {
	return strings.TrimSuffix(base, "/") + "/" + strconv.FormatInt(id, 10)
}
