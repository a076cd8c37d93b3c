package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/model"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Normalize maps raw entries to price candidates in input order. Entries
// with a missing field, a malformed date or a non-numeric / non-positive
// value are skipped and the reason is logged. An empty region means
// NationalRegion. SurchargeRate is left zero for the caller to fill in.
func Normalize(ctx context.Context, entries []RawEntry, region string, sink activity.Sink) []model.PriceCandidate {
	sink = activity.OrNop(sink)
	if region == "" {
		region = NationalRegion
	}

	out := make([]model.PriceCandidate, 0, len(entries))
	for i, e := range entries {
		c, reason := normalizeEntry(e)
		if reason != "" {
			sink.Append(ctx, activity.TypeDataProcessing, "Skipped invalid entry: "+reason, map[string]any{
				"index": i,
				"entry": e,
			})
			continue
		}
		c.Region = region
		out = append(out, c)
	}
	return out
}

func normalizeEntry(e RawEntry) (model.PriceCandidate, string) {
	rawPeriod, okPeriod := e["period"]
	rawValue, okValue := e["value"]
	if !okPeriod || !okValue || rawPeriod == nil || rawValue == nil {
		return model.PriceCandidate{}, "missing field"
	}

	period, ok := rawPeriod.(string)
	if !ok || !dateRe.MatchString(period) {
		return model.PriceCandidate{}, "bad date format"
	}
	date, err := time.Parse(dateLayout, period)
	if err != nil {
		return model.PriceCandidate{}, "bad date format"
	}

	price, ok := numeric(rawValue)
	if !ok {
		return model.PriceCandidate{}, "non-numeric value"
	}
	if !price.IsPositive() {
		return model.PriceCandidate{}, "non-positive value"
	}

	return model.PriceCandidate{Date: date, Price: price}, ""
}

func numeric(v any) (decimal.Decimal, bool) {
	var s string
	switch v := v.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		return decimal.NewFromFloat(v), true
	default:
		s = fmt.Sprint(v)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
