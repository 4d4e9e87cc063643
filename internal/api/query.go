package api

import (
	"fmt"
	"net/url"
	"strconv"

	"racetime/internal/analysis"
	"racetime/internal/service"
)

// parsePredictionRequest reads the prediction query parameters. Range checks
// are left to the service.
func parsePredictionRequest(q url.Values, defaults service.PredictionRequest) (service.PredictionRequest, error) {
	req := defaults

	if v := q.Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: weeks=%q", ErrBadQuery, v)
		}
		req.WeeksBack = n
	}

	if ds := q["distance"]; len(ds) > 0 {
		req.CustomDistances = nil
		for _, v := range ds {
			d, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return req, fmt.Errorf("%w: distance=%q", ErrBadQuery, v)
			}
			req.CustomDistances = append(req.CustomDistances, d)
		}
	}

	if v := q.Get("days_until"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: days_until=%q", ErrBadQuery, v)
		}
		req.DaysUntilRace = &n
	}

	var c analysis.RaceConditions
	set := false
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"temperature", &c.Temperature},
		{"wind", &c.WindSpeed},
		{"elevation", &c.Elevation},
		{"altitude", &c.Altitude},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: %s=%q", ErrBadQuery, f.name, v)
		}
		*f.dst = &x
		set = true
	}
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"optimal_taper", &c.OptimalTaper},
		{"optimal_weather", &c.OptimalWeather},
		{"flat_course", &c.FlatCourse},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("%w: %s=%q", ErrBadQuery, f.name, v)
		}
		*f.dst = b
		set = true
	}
	if set {
		if req.DaysUntilRace == nil {
			return req, fmt.Errorf("%w: race conditions need days_until", ErrBadQuery)
		}
		req.Conditions = &c
	}
	return req, nil
}
