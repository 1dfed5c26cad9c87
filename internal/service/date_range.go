package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

const defaultMaxRangeDays = 365

// parseRange reads both date keys and applies the range editor rule:
// both present, start not after end, at most maxDays inclusive.
func parseRange(rawStart, rawEnd string, maxDays int) (time.Time, time.Time, error) {
	if strings.TrimSpace(rawStart) == "" || strings.TrimSpace(rawEnd) == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "start_date and end_date are both required")
	}
	start, err := parseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := validateRange(start, end, maxDays); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func validateRange(start, end time.Time, maxDays int) error {
	if maxDays <= 0 {
		maxDays = defaultMaxRangeDays
	}
	if calendar.Normalize(start).After(calendar.Normalize(end)) {
		return appErrors.Clone(appErrors.ErrInvalidRange, "start date cannot be after end date")
	}
	if calendar.DaysInclusive(start, end) > maxDays {
		return appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("date range cannot exceed %d days", maxDays))
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := calendar.Parse(raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return d, nil
}

// parseWindow reads a display window. Unlike parseRange it has no length cap.
func parseWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	if strings.TrimSpace(rawStart) == "" || strings.TrimSpace(rawEnd) == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "start_date and end_date are both required")
	}
	start, err := parseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "start date cannot be after end date")
	}
	return start, end, nil
}
