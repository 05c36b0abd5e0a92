package solcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// RooftopSite is a registered rooftop PV installation.
type RooftopSite struct {
	Name        string    `json:"name"`
	ResourceID  string    `json:"resource_id"`
	InstallDate time.Time `json:"install_date"`
	Capacity    float64   `json:"capacity"`
	CapacityDC  float64   `json:"capacity_dc"`
	Azimuth     int       `json:"azimuth"`
	Tilt        int       `json:"tilt"`
	LossFactor  float64   `json:"loss_factor"`
}

// RateLimit is the daily usage allowance of the API key.
type RateLimit struct {
	DailyLimit     int `json:"daily_limit"`
	RemainingDaily int `json:"remaining_daily"`
	ConsumedDaily  int `json:"consumed_daily"`
}

const decodeFailedMsg = "Failed to decode response from API."

// DecodeRooftopSite builds a RooftopSite from a decoded JSON object.
func DecodeRooftopSite(obj map[string]any) (RooftopSite, error) {
	var (
		site RooftopSite
		err  error
	)
	if site.Name, err = stringField(obj, "name"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.ResourceID, err = stringField(obj, "resource_id"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.InstallDate, err = timeField(obj, "install_date"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.Capacity, err = floatField(obj, "capacity"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.CapacityDC, err = floatField(obj, "capacity_dc"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.Azimuth, err = intField(obj, "azimuth"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.Tilt, err = intField(obj, "tilt"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	if site.LossFactor, err = floatField(obj, "loss_factor"); err != nil {
		return RooftopSite{}, decodeError(err)
	}
	return site, nil
}

// DecodeRateLimit builds a RateLimit from a decoded JSON object.
func DecodeRateLimit(obj map[string]any) (RateLimit, error) {
	limit, err := intField(obj, "daily_limit")
	if err != nil {
		return RateLimit{}, decodeError(err)
	}
	consumed, err := intField(obj, "daily_limit_consumed")
	if err != nil {
		return RateLimit{}, decodeError(err)
	}
	return RateLimit{
		DailyLimit:     limit,
		RemainingDaily: limit - consumed,
		ConsumedDaily:  consumed,
	}, nil
}

// DecodeRooftopSiteList decodes the "sites" member of a rooftop_sites response.
// A missing key is a results error; an empty list is not.
func DecodeRooftopSiteList(response any) ([]RooftopSite, error) {
	obj, ok := response.(map[string]any)
	if !ok {
		return nil, newError(KindResults, "No rooftop sites found.", fmt.Errorf("response is %T, not an object", response))
	}
	raw, ok := obj["sites"]
	if !ok {
		return nil, newError(KindResults, "No rooftop sites found.", &FieldError{Field: "sites"})
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, decodeError(&FieldError{Field: "sites", Err: fmt.Errorf("expected array, got %T", raw)})
	}

	sites := make([]RooftopSite, 0, len(items))
	for i, item := range items {
		siteObj, ok := item.(map[string]any)
		if !ok {
			return nil, decodeError(&FieldError{Field: fmt.Sprintf("sites[%d]", i), Err: fmt.Errorf("expected object, got %T", item)})
		}
		site, err := DecodeRooftopSite(siteObj)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func decodeError(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return newError(KindGeneric, decodeFailedMsg, err)
}

func lookup(obj map[string]any, key string) (any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, &FieldError{Field: key}
	}
	return v, nil
}

func stringField(obj map[string]any, key string) (string, error) {
	v, err := lookup(obj, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Field: key, Err: fmt.Errorf("expected string, got %T", v)}
	}
	return s, nil
}

func floatField(obj map[string]any, key string) (float64, error) {
	v, err := lookup(obj, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &FieldError{Field: key, Err: err}
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, &FieldError{Field: key, Err: fmt.Errorf("expected number, got %T", v)}
	}
}

func intField(obj map[string]any, key string) (int, error) {
	v, err := lookup(obj, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(n.String(), 10, 0); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, &FieldError{Field: key, Err: fmt.Errorf("expected integer, got %s", n)}
		}
		return floatToInt(key, f)
	case float64:
		return floatToInt(key, n)
	case int:
		return n, nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, &FieldError{Field: key, Err: fmt.Errorf("integer %d out of range", n)}
		}
		return int(n), nil
	default:
		return 0, &FieldError{Field: key, Err: fmt.Errorf("expected number, got %T", v)}
	}
}

// floatToInt accepts only whole values that fit in an int.
func floatToInt(key string, f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, &FieldError{Field: key, Err: fmt.Errorf("expected integer, got %v", f)}
	}
	// float64(math.MaxInt) is 2^63 on 64-bit platforms, one past the largest int.
	if f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0, &FieldError{Field: key, Err: fmt.Errorf("integer %v out of range", f)}
	}
	return int(f), nil
}

func timeField(obj map[string]any, key string) (time.Time, error) {
	s, err := stringField(obj, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseISO8601(s)
	if err != nil {
		return time.Time{}, &FieldError{Field: key, Err: err}
	}
	return t, nil
}

// Accepted ISO-8601 layouts, most specific first. Values without an offset are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15",
	"20060102T150405Z0700",
	"20060102T150405",
	"20060102",
	"2006-01-02",
}

// ParseISO8601 parses the date-time formats the API emits.
func ParseISO8601(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 date-time %q", s)
}
