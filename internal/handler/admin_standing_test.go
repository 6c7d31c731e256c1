package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/gym-class-scheduler/internal/config"
)

func TestWindowFromReqDefaultsToToday(t *testing.T) {
	h := &StandingHandler{Cfg: config.Config{MaterializeWindowDays: 14}}

	opts, err := h.windowFromReq(materializeReq{})
	require.NoError(t, err)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, opts.From, "an empty body starts the window today")
	assert.Equal(t, today.AddDate(0, 0, 13), opts.To, "14 days inclusive")
	assert.Nil(t, opts.SubscriptionID)
	assert.Nil(t, opts.StandingBookingID)
}

func TestWindowFromReqExplicitBounds(t *testing.T) {
	h := &StandingHandler{Cfg: config.Config{MaterializeWindowDays: 14}}
	to := "2026-02-10"
	id := uint64(7)

	opts, err := h.windowFromReq(materializeReq{
		From:              "2026-02-01",
		To:                &to,
		StandingBookingID: &id,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), opts.From)
	assert.Equal(t, time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC), opts.To)
	require.NotNil(t, opts.StandingBookingID)
	assert.Equal(t, id, *opts.StandingBookingID)
}

func TestWindowFromReqDaysOverride(t *testing.T) {
	h := &StandingHandler{Cfg: config.Config{MaterializeWindowDays: 14}}
	days := 7

	opts, err := h.windowFromReq(materializeReq{From: "2026-02-01", Days: &days})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC), opts.To)
}

func TestWindowFromReqRejectsBadDates(t *testing.T) {
	h := &StandingHandler{Cfg: config.Config{MaterializeWindowDays: 14}}

	_, err := h.windowFromReq(materializeReq{From: "02/01/2026"})
	assert.Error(t, err)

	bad := "not-a-date"
	_, err = h.windowFromReq(materializeReq{To: &bad})
	assert.Error(t, err)
}
