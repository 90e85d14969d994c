package publishing

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the site-local timestamp WordPress emits in "date".
const dateLayout = "2006-01-02T15:04:05"

type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Post is a WordPress post as returned with _embed.
type Post struct {
	ID       int      `json:"id"`
	Date     string   `json:"date"`
	Link     string   `json:"link"`
	Title    Rendered `json:"title"`
	Excerpt  Rendered `json:"excerpt"`
	Content  Rendered `json:"content"`
	Meta     Meta     `json:"meta"`
	Embedded Embedded `json:"_embedded"`
}

type Rendered struct {
	Rendered string `json:"rendered"`
}

// Meta holds the custom fields the app reads. WordPress encodes an empty
// meta object as [] and single-valued fields sometimes as one-element arrays.
type Meta struct {
	SourceTag  string
	SourceLink string
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*m = Meta{}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*m = Meta{
		SourceTag:  metaString(fields["Source_Tag"]),
		SourceLink: metaString(fields["Source_Link"]),
	}
	return nil
}

func metaString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				return item
			}
		}
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

type Embedded struct {
	FeaturedMedia []Media `json:"wp:featuredmedia"`
}

type Media struct {
	ID           int          `json:"id"`
	SourceURL    string       `json:"source_url"`
	MediaDetails MediaDetails `json:"media_details"`
}

type MediaDetails struct {
	Sizes map[string]MediaSize `json:"sizes"`
}

// UnmarshalJSON tolerates media_details being [] or missing sizes, as
// WordPress returns for non-image attachments.
func (d *MediaDetails) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*d = MediaDetails{}
		return nil
	}
	var raw struct {
		Sizes json.RawMessage `json:"sizes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = MediaDetails{}
	sizes := bytes.TrimSpace(raw.Sizes)
	if len(sizes) == 0 || sizes[0] != '{' {
		return nil
	}
	return json.Unmarshal(sizes, &d.Sizes)
}

type MediaSize struct {
	SourceURL string `json:"source_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// PublishedAt parses Date; an unparseable value yields the zero time.
func (p Post) PublishedAt() time.Time {
	s := strings.TrimSpace(p.Date)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0)
	}
	return time.Time{}
}
