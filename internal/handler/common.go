// Package handler contains the HTTP layer: request binding, parameter
// parsing and translation of scheduling/repository errors into JSON
// responses.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelez/gym-class-scheduler/internal/repository"
	"github.com/avelez/gym-class-scheduler/internal/scheduling"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil
}

// queryID parses an optional numeric query parameter, returning nil when
// absent.
func queryID(c echo.Context, name string) (*uint64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// notFound holds the repository sentinels that map to HTTP 404.
var notFound = []error{
	repository.ErrTemplateNotFound,
	repository.ErrSessionNotFound,
	repository.ErrVenueNotFound,
	repository.ErrSeatNotFound,
	repository.ErrPersonNotFound,
	repository.ErrPlanNotFound,
	repository.ErrSubscriptionNotFound,
	repository.ErrBookingNotFound,
	repository.ErrReservationNotFound,
}

// fail converts a scheduling or repository error into a JSON response.
// ValidationError becomes 400 with its message, the not-found sentinels
// become 404, duplicates and conflicts 409, everything else a generic 500.
func fail(c echo.Context, err error) error {
	var ve *scheduling.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
	}
	for _, sentinel := range notFound {
		if errors.Is(err, sentinel) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": sentinel.Error()})
		}
	}
	if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
