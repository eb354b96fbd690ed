package handlers

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dataco-dashboard/internal/errors"
	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/present"
	"dataco-dashboard/internal/services"
)

// selectionFromQuery reads markets, start and end from q, falling back to
// defaults for absent parameters. A markets parameter that is present but
// empty selects no markets.
func selectionFromQuery(q url.Values, defaults models.Selection) (models.Selection, error) {
	sel := defaults

	if values, ok := q["markets"]; ok {
		sel.Markets = splitMarkets(values)
	}

	var err error
	if sel.Range.Start, err = parseDateParam("start", q.Get("start"), defaults.Range.Start); err != nil {
		return models.Selection{}, err
	}
	if sel.Range.End, err = parseDateParam("end", q.Get("end"), defaults.Range.End); err != nil {
		return models.Selection{}, err
	}
	return sel, nil
}

// dashboardSignals mirrors the page's filter controls.
type dashboardSignals struct {
	Markets   []string `json:"markets"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
}

func selectionFromSignals(sig dashboardSignals, defaults models.Selection) (models.Selection, error) {
	sel := defaults
	if sig.Markets != nil {
		sel.Markets = splitMarkets(sig.Markets)
	}

	var err error
	if sel.Range.Start, err = parseDateParam("startDate", sig.StartDate, defaults.Range.Start); err != nil {
		return models.Selection{}, err
	}
	if sel.Range.End, err = parseDateParam("endDate", sig.EndDate, defaults.Range.End); err != nil {
		return models.Selection{}, err
	}
	return sel, nil
}

func splitMarkets(values []string) []string {
	markets := []string{}
	for _, v := range values {
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				markets = append(markets, m)
			}
		}
	}
	return markets
}

func parseDateParam(name, value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(present.DateLayout, value)
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err, fmt.Sprintf("invalid %s date", name)).
			WithDetails(fmt.Sprintf("expected %s, got %q", present.DateLayout, value))
	}
	return t, nil
}

// appError maps service failures to HTTP errors.
func appError(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	if stderrors.Is(err, services.ErrUnknownView) {
		return errors.NotFound("unknown view").WithDetails(err.Error())
	}
	return errors.ServiceUnavailableWrap(err, "warehouse unavailable")
}
