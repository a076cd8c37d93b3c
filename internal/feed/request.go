package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://api.eia.gov/v2/petroleum/pri/gnd/data/"

	// DefaultProduct is the EIA product facet for No. 2 on-highway diesel.
	DefaultProduct = "EPD2D"

	// DefaultArea is the EIA duoarea facet for the U.S. national average.
	DefaultArea = "NUS"

	// NationalRegion is the canonical region tag stored for DefaultArea.
	NationalRegion = "national"

	redactedKey = "REDACTED"
)

// Series selects which EIA series is requested.
type Series struct {
	BaseURL   string
	Product   string
	Area      string
	Region    string // region tag written on the normalized records
	Frequency string
	Length    int
}

// DefaultSeries is the weekly national diesel average.
func DefaultSeries() Series {
	return Series{
		BaseURL:   DefaultBaseURL,
		Product:   DefaultProduct,
		Area:      DefaultArea,
		Region:    NationalRegion,
		Frequency: "weekly",
		Length:    52,
	}
}

// BuildURL returns the request URL and a copy safe to log, with the API key
// replaced.
func BuildURL(s Series, apiKey string) (full, redacted string, err error) {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", "", fmt.Errorf("feed: invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("frequency", orDefault(s.Frequency, "weekly"))
	q.Set("data[0]", "value")
	q.Set("facets[product][]", orDefault(s.Product, DefaultProduct))
	q.Set("facets[duoarea][]", orDefault(s.Area, DefaultArea))
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "desc")
	q.Set("offset", "0")
	length := s.Length
	if length <= 0 {
		length = 52
	}
	q.Set("length", strconv.Itoa(length))

	q.Set("api_key", apiKey)
	u.RawQuery = q.Encode()
	full = u.String()

	q.Set("api_key", redactedKey)
	u.RawQuery = q.Encode()
	return full, u.String(), nil
}

// Redact hides an api_key query parameter in an arbitrary URL string.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("api_key") == "" {
		return raw
	}
	q.Set("api_key", redactedKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
