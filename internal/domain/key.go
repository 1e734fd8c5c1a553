package domain

import "regexp"

// SourceKey is the deterministic identity of one lecture source. All URL
// forms that refer to the same video normalize to the same key.
type SourceKey string

func (k SourceKey) String() string { return string(k) }

var sourceKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
	regexp.MustCompile(`embed/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`v/([0-9A-Za-z_-]{11})`),
}

// ParseSourceKey extracts the 11-character video ID from a lecture URL.
func ParseSourceKey(rawURL string) (SourceKey, error) {
	for _, p := range sourceKeyPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return SourceKey(m[1]), nil
		}
	}
	return "", &InvalidReferenceError{Reference: rawURL, Reason: "no video id found in url"}
}
