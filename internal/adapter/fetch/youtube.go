package fetch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tzhao11/lectern/internal/domain"
)

// Caption languages tried in order before falling back to whatever the
// endpoint returns without a language hint.
var preferredLanguages = []string{"en", "en-US", "en-GB", "es", "fr", "de"}

// YouTubeFetcher fetches transcripts and metadata from YouTube's public
// oembed and timedtext endpoints.
type YouTubeFetcher struct {
	oembedURL    string
	timedtextURL string
	httpClient   *http.Client
}

// NewYouTubeFetcher creates a fetcher with the default endpoints.
func NewYouTubeFetcher(timeout time.Duration) *YouTubeFetcher {
	return &YouTubeFetcher{
		oembedURL:    "https://www.youtube.com/oembed",
		timedtextURL: "https://video.google.com/timedtext",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewYouTubeFetcherWithEndpoints creates a fetcher against explicit endpoints.
// Used by tests to point at a local server.
func NewYouTubeFetcherWithEndpoints(oembedURL, timedtextURL string, client *http.Client) *YouTubeFetcher {
	return &YouTubeFetcher{
		oembedURL:    oembedURL,
		timedtextURL: timedtextURL,
		httpClient:   client,
	}
}

var _ TranscriptFetcher = (*YouTubeFetcher)(nil)

// Fetch resolves a lecture URL into transcript text and metadata.
func (f *YouTubeFetcher) Fetch(ctx context.Context, sourceURL string) (*Result, error) {
	key, err := domain.ParseSourceKey(sourceURL)
	if err != nil {
		return nil, err
	}

	meta, err := f.fetchMeta(ctx, sourceURL, key)
	if err != nil {
		return nil, err
	}

	segments, err := f.fetchCaptions(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, &domain.NotFoundError{Key: key, Reason: "no transcript available"}
	}

	return &Result{
		Key:        key,
		Transcript: assembleTranscript(segments),
		Meta:       meta,
	}, nil
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (f *YouTubeFetcher) fetchMeta(ctx context.Context, sourceURL string, key domain.SourceKey) (domain.SourceMeta, error) {
	// Metadata failure is survivable: fall back to a placeholder title the
	// same way the transcript endpoint remains authoritative for existence.
	fallback := domain.SourceMeta{Title: fmt.Sprintf("Video %s", key), Channel: "Unknown Channel"}

	q := url.Values{}
	q.Set("url", sourceURL)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.oembedURL+"?"+q.Encode(), nil)
	if err != nil {
		return fallback, nil
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fallback, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		return fallback, &domain.NotFoundError{Key: key, Reason: "video does not exist or is private"}
	}
	if resp.StatusCode != http.StatusOK {
		return fallback, nil
	}

	var oe oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil {
		return fallback, nil
	}

	meta := fallback
	if oe.Title != "" {
		meta.Title = oe.Title
	}
	if oe.AuthorName != "" {
		meta.Channel = oe.AuthorName
	}
	return meta, nil
}

// captionSegment is one timed caption line.
type captionSegment struct {
	Start float64
	Text  string
}

type timedtextDocument struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start float64 `xml:"start,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func (f *YouTubeFetcher) fetchCaptions(ctx context.Context, key domain.SourceKey) ([]captionSegment, error) {
	for _, lang := range preferredLanguages {
		segments, err := f.fetchCaptionTrack(ctx, key, lang)
		if err != nil {
			return nil, err
		}
		if len(segments) > 0 {
			return segments, nil
		}
	}
	// Last resort: let the endpoint pick a default track.
	return f.fetchCaptionTrack(ctx, key, "")
}

func (f *YouTubeFetcher) fetchCaptionTrack(ctx context.Context, key domain.SourceKey, lang string) ([]captionSegment, error) {
	q := url.Values{}
	q.Set("v", key.String())
	if lang != "" {
		q.Set("lang", lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.timedtextURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read captions: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}

	var doc timedtextDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil
	}

	segments := make([]captionSegment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, captionSegment{Start: t.Start, Text: text})
	}
	return segments, nil
}

// assembleTranscript joins caption segments into paragraphed text. A pause
// longer than two seconds or roughly five sentences starts a new paragraph.
func assembleTranscript(segments []captionSegment) string {
	var paragraphs []string
	var current []string

	for i, seg := range segments {
		current = append(current, seg.Text)

		if i < len(segments)-1 {
			gap := segments[i+1].Start - seg.Start
			joined := strings.Join(current, " ")
			sentences := strings.Count(joined, ".") + strings.Count(joined, "?") + strings.Count(joined, "!")

			if gap > 2.0 || sentences >= 5 {
				paragraphs = append(paragraphs, joined)
				current = nil
			}
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}

	return strings.Join(paragraphs, "\n\n")
}
