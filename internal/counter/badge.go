package counter

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dustin/go-humanize"
)

const (
	badgeMinWidth  = 120
	badgeCharWidth = 6
	badgePadding   = 40
)

var badgeTemplate = template.Must(template.New("badge").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="20" role="img" aria-label="Views: {{.Formatted}}">
  <title>Views: {{.Title}}</title>
  <linearGradient id="bg" x1="0" x2="0" y1="0" y2="1">
    <stop offset="0%" stop-color="#444"/>
    <stop offset="100%" stop-color="#222"/>
  </linearGradient>
  <rect width="{{.Width}}" height="20" fill="url(#bg)" rx="3"/>
  <linearGradient id="eye" x1="0" x2="0" y1="0" y2="1">
    <stop offset="0%" stop-color="#ff6b6b"/>
    <stop offset="100%" stop-color="#ffd93d"/>
  </linearGradient>
  <circle cx="15" cy="10" r="6" fill="url(#eye)"/>
  <circle cx="15" cy="10" r="2" fill="#000"/>
  <text x="30" y="14" font-family="Arial, sans-serif" font-size="11" fill="#fff">Views:</text>
  <text x="{{.TextX}}" y="14" font-family="Arial, sans-serif" font-size="11" font-weight="bold" fill="#ffd700" text-anchor="end">{{.Formatted}}</text>
</svg>
`))

type badgeData struct {
	Width     int
	TextX     int
	Formatted string
	Title     string
}

// BadgeWidth grows with the formatted count and never drops below 120.
func BadgeWidth(formatted string) int {
	return max(badgeMinWidth, len(formatted)*badgeCharWidth+badgePadding)
}

// RenderBadge returns the SVG badge showing Format(count).
func RenderBadge(count int64) ([]byte, error) {
	formatted := Format(count)
	width := BadgeWidth(formatted)

	var buf bytes.Buffer
	err := badgeTemplate.Execute(&buf, badgeData{
		Width:     width,
		TextX:     width - 10,
		Formatted: formatted,
		Title:     humanize.Comma(count),
	})
	if err != nil {
		return nil, fmt.Errorf("badgeTemplate.Execute: %w", err)
	}
	return buf.Bytes(), nil
}
