package fetch

import (
	"regexp"
	"strings"
)

// Title extraction is deliberately regex-based. The input is arbitrary,
// often broken HTML from untrusted sites; a best-effort scan over the raw
// text is all the job needs, and a real parser would choke on the same
// pages this shrugs at.
var (
	reOGTitle     = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:title["'][^>]+content=["']([^"']+)["']`)
	reOGTitleRev  = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+property=["']og:title["']`)
	reTwTitle     = regexp.MustCompile(`(?i)<meta[^>]+name=["']twitter:title["'][^>]+content=["']([^"']+)["']`)
	reTwTitleRev  = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+name=["']twitter:title["']`)
	reTitleTag    = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	reTitleSuffix = regexp.MustCompile(`\s*[|·—–\-]\s*[^|·—–\-]{2,40}$`)
	reReaderTitle = regexp.MustCompile(`(?m)^Title:\s*(.+)$`)
)

// ExtractTitle pulls a title out of raw HTML: og:title, then twitter:title,
// then the <title> element, first match wins. Used by the analyze path.
func ExtractTitle(html string) string {
	return extractTitle(html, true)
}

// ExtractPreviewTitle is the lighter variant for previews: og:title then
// <title> only.
func ExtractPreviewTitle(html string) string {
	return extractTitle(html, false)
}

func extractTitle(html string, includeTwitter bool) string {
	patterns := []*regexp.Regexp{reOGTitle, reOGTitleRev}
	if includeTwitter {
		patterns = append(patterns, reTwTitle, reTwTitleRev)
	}
	patterns = append(patterns, reTitleTag)

	for _, re := range patterns {
		if m := re.FindStringSubmatch(html); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				return StripSiteSuffix(title)
			}
		}
	}
	return ""
}

// StripSiteSuffix removes a trailing " | Site Name" style suffix, but keeps
// the original title when stripping would leave nothing.
func StripSiteSuffix(title string) string {
	stripped := strings.TrimSpace(reTitleSuffix.ReplaceAllString(title, ""))
	if stripped == "" {
		return title
	}
	return stripped
}

// ReaderTitle finds the "Title: ..." metadata line at the top of the reader
// relay's output. Fallback for pages where the HTML fetch yielded nothing.
func ReaderTitle(text string) string {
	if m := reReaderTitle.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
