// Package validation turns raw producer payloads into typed events.
// It only checks structure; whether an event makes sense against the
// current match state is decided by the transition engine.
package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/innings/internal/domain/model"
)

// Payload keys.
const (
	KeyEventID        = "event_id"
	KeyEventType      = "event_type"
	KeyTimestamp      = "timestamp"
	KeyCurrentScore   = "current_score"
	KeyCurrentWickets = "current_wickets"
	KeyOversPlayed    = "overs_played"
	KeyRunsScored     = "runs_scored"
	KeyBatter         = "batter"
	KeyBowler         = "bowler"
	KeyDismissalMode  = "dismissal_mode"
	KeyFielder        = "fielder"
	KeyBallsInOver    = "balls_in_over"
	KeyCommentary     = "commentary"
)

const (
	minBallsInOver = 1
	maxBallsInOver = 6

	// maxExactInt is the largest magnitude a float64 holds without losing
	// integer precision.
	maxExactInt = 1 << 53
)

// RequiredKeys lists the keys every payload must carry, in check order.
var RequiredKeys = []string{KeyEventType, KeyTimestamp, KeyCurrentScore, KeyCurrentWickets, KeyOversPlayed}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Validate converts raw into an Event or returns the first structural
// problem found. Required keys are checked in RequiredKeys order.
func Validate(raw map[string]any) (model.Event, error) {
	for _, k := range RequiredKeys {
		if v, ok := raw[k]; !ok || v == nil {
			return model.Event{}, &MissingFieldError{Field: k}
		}
	}

	var ev model.Event
	var err error

	typ, ok := raw[KeyEventType].(string)
	if !ok {
		return model.Event{}, &FieldTypeError{Field: KeyEventType, Want: "string", Value: raw[KeyEventType]}
	}
	ev.Type = model.EventType(strings.TrimSpace(typ))

	if ev.Timestamp, err = parseTimestamp(raw[KeyTimestamp]); err != nil {
		return model.Event{}, err
	}
	if ev.CurrentScore, err = intField(raw, KeyCurrentScore); err != nil {
		return model.Event{}, err
	}
	if ev.CurrentWickets, err = intField(raw, KeyCurrentWickets); err != nil {
		return model.Event{}, err
	}
	if ev.OversPlayed, err = floatField(raw, KeyOversPlayed); err != nil {
		return model.Event{}, err
	}

	if _, ok := raw[KeyRunsScored]; ok {
		if ev.RunsScored, err = intField(raw, KeyRunsScored); err != nil {
			return model.Event{}, err
		}
	}

	if v, ok := raw[KeyBallsInOver]; ok && v != nil {
		if ev.BallsInOver, err = intField(raw, KeyBallsInOver); err != nil {
			return model.Event{}, err
		}
	} else {
		ev.BallsInOver = ballsFromOvers(ev.OversPlayed)
	}

	if ev.ID, err = optString(raw, KeyEventID); err != nil {
		return model.Event{}, err
	}
	if ev.Batter, err = optStringPtr(raw, KeyBatter); err != nil {
		return model.Event{}, err
	}
	if ev.Bowler, err = optStringPtr(raw, KeyBowler); err != nil {
		return model.Event{}, err
	}
	if ev.Fielder, err = optStringPtr(raw, KeyFielder); err != nil {
		return model.Event{}, err
	}
	if ev.Commentary, err = optStringPtr(raw, KeyCommentary); err != nil {
		return model.Event{}, err
	}
	mode, err := optStringPtr(raw, KeyDismissalMode)
	if err != nil {
		return model.Event{}, err
	}
	if mode != nil {
		ev.DismissalMode = model.Ptr(model.DismissalMode(*mode))
	}

	if err := Check(ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// Check applies the range checks to an event built directly by a producer.
// A zero Timestamp counts as missing there; Validate reports an explicit
// zero time in a payload as an invalid timestamp instead.
func Check(ev model.Event) error {
	if ev.BallsInOver < minBallsInOver || ev.BallsInOver > maxBallsInOver {
		return &FieldRangeError{Field: KeyBallsInOver, Value: ev.BallsInOver, Min: minBallsInOver, Max: maxBallsInOver}
	}
	if ev.Type == "" {
		return &MissingFieldError{Field: KeyEventType}
	}
	if ev.Timestamp.IsZero() {
		return &MissingFieldError{Field: KeyTimestamp}
	}
	return nil
}

// ballsFromOvers derives the delivery number from cricket overs notation.
// A completed over (x.0) was ended by its sixth ball.
func ballsFromOvers(overs float64) int {
	b := model.BallOfOver(overs)
	if b == 0 {
		return maxBallsInOver
	}
	return b
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, &InvalidTimestampError{Value: t, Err: ErrZeroTimestamp}
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		var lastErr error
		for _, layout := range timestampLayouts {
			parsed, err := time.Parse(layout, s)
			if err == nil {
				if parsed.IsZero() {
					return time.Time{}, &InvalidTimestampError{Value: t, Err: ErrZeroTimestamp}
				}
				return parsed, nil
			}
			lastErr = err
		}
		return time.Time{}, &InvalidTimestampError{Value: t, Err: lastErr}
	default:
		return time.Time{}, &InvalidTimestampError{Value: v}
	}
}

func intField(raw map[string]any, key string) (int, error) {
	v := raw[key]
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if i, ok := integral(n); ok {
			return i, nil
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		// "31.0" and "3.1e1" decode as numbers but not as Int64.
		if f, err := n.Float64(); err == nil {
			if i, ok := integral(f); ok {
				return i, nil
			}
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}
	return 0, &FieldTypeError{Field: key, Want: "integer", Value: v}
}

// integral converts f when it is a whole number small enough to be exact.
func integral(f float64) (int, bool) {
	if math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int(f), true
}

func floatField(raw map[string]any, key string) (float64, error) {
	v := raw[key]
	switch n := v.(type) {
	case float64:
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n, nil
		}
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, nil
		}
	}
	return 0, &FieldTypeError{Field: key, Want: "number", Value: v}
}

func optString(raw map[string]any, key string) (string, error) {
	p, err := optStringPtr(raw, key)
	if err != nil || p == nil {
		return "", err
	}
	return *p, nil
}

func optStringPtr(raw map[string]any, key string) (*string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &FieldTypeError{Field: key, Want: "string", Value: v}
	}
	return &s, nil
}
