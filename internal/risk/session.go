package risk

import (
	"fmt"
	"time"
)

type OrderLabel string

const (
	MarketOrder OrderLabel = "MARKET"
	LimitOrder  OrderLabel = "LIMIT"
)

// SessionWindow is the daily regular-session window in minutes from
// midnight, evaluated in Location. Weekends are always outside.
type SessionWindow struct {
	OpenMinute  int
	CloseMinute int
	Location    *time.Location
}

func NewSessionWindow(locationName string, openMinute, closeMinute int) (SessionWindow, error) {
	loc, err := time.LoadLocation(locationName)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("%w: can't load session location", err)
	}
	return SessionWindow{
		OpenMinute:  openMinute,
		CloseMinute: closeMinute,
		Location:    loc,
	}, nil
}

// InSession reports whether ts falls inside the regular session.
func (w SessionWindow) InSession(ts time.Time) bool {
	local := ts.In(w.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= w.OpenMinute && minute <= w.CloseMinute
}

// OrderTypeLabel names the order type shown for a buy or sell flow:
// MARKET during the regular session, LIMIT at the quoted price outside
// of it. Labeling only, no routing.
func (w SessionWindow) OrderTypeLabel(ts time.Time) OrderLabel {
	if w.InSession(ts) {
		return MarketOrder
	}
	return LimitOrder
}
