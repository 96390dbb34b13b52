package api

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/warp/saju-engine/saju"
)

// parseMoment reads the birth moment and the per-request calculator
// options from a query string. Range checks are left to the engine.
func parseMoment(q url.Values) (saju.BirthMoment, []saju.Option, error) {
	var m saju.BirthMoment
	var err error

	if m.Year, err = requiredInt(q, "year"); err != nil {
		return m, nil, err
	}
	if m.Month, err = requiredInt(q, "month"); err != nil {
		return m, nil, err
	}
	if m.Day, err = requiredInt(q, "day"); err != nil {
		return m, nil, err
	}
	if m.Hour, err = optionalInt(q.Get("hour"), 0); err != nil {
		return m, nil, err
	}
	if m.Minute, err = optionalInt(q.Get("minute"), 0); err != nil {
		return m, nil, err
	}
	if m.IsSolar, err = optionalBool(q, "solar", true); err != nil {
		return m, nil, err
	}
	if m.IsLeapMonth, err = optionalBool(q, "leap", false); err != nil {
		return m, nil, err
	}

	opts, err := correctionOptions(q)
	if err != nil {
		return m, nil, err
	}
	return m, opts, nil
}

// correctionOptions resolves location/longitude/correct/nightZi. A named
// location wins over a longitude; correct=true with neither uses 서울.
func correctionOptions(q url.Values) ([]saju.Option, error) {
	var opts []saju.Option

	location, lon := q.Get("location"), q.Get("longitude")
	switch {
	case location != "":
		off, err := saju.LocationOffset(location)
		if err != nil {
			return nil, err
		}
		opts = append(opts, saju.WithSolarTimeOffset(off))
	case lon != "":
		deg, err := strconv.ParseFloat(lon, 64)
		if err != nil || deg < -180 || deg > 180 {
			return nil, fmt.Errorf("%w: longitude %q", saju.ErrInvalidInput, lon)
		}
		opts = append(opts, saju.WithSolarTimeOffset(saju.SolarTimeOffset(deg)))
	case q.Get("correct") != "":
		on, err := strconv.ParseBool(q.Get("correct"))
		if err != nil {
			return nil, fmt.Errorf("%w: correct %q", saju.ErrInvalidInput, q.Get("correct"))
		}
		off := 0
		if on {
			off, _ = saju.LocationOffset(saju.DefaultLocation)
		}
		opts = append(opts, saju.WithSolarTimeOffset(off))
	}

	if v := q.Get("nightZi"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: nightZi %q", saju.ErrInvalidInput, v)
		}
		opts = append(opts, saju.WithNightZi(on))
	}
	return opts, nil
}

func requiredInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", saju.ErrInvalidInput, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", saju.ErrInvalidInput, key, v)
	}
	return n, nil
}

func optionalInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", saju.ErrInvalidInput, v)
	}
	return n, nil
}

func optionalBool(q url.Values, key string, def bool) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", saju.ErrInvalidInput, key, v)
	}
	return b, nil
}

// KST date layouts accepted by date parameters, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseKST(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, saju.KST); err == nil {
			return t.In(saju.KST), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", saju.ErrInvalidInput, v)
}
