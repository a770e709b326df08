package lapindex

import (
	"bytes"
	"encoding/json"
	"strconv"

	"justapengu.in/lapindex/pkg/laptime"
)

// SessionRecord is a single session document. Metadata is kept as raw JSON and copied
// into the summary untouched: track, for example, is a plain name in older exports and an
// object with a maps link in newer ones.
type SessionRecord struct {
	SessionID   json.RawMessage `json:"session_id"`
	Driver      json.RawMessage `json:"driver"`
	Track       json.RawMessage `json:"track"`
	SessionDate json.RawMessage `json:"session_date"`
	Kart        json.RawMessage `json:"kart"`

	Laps Laps `json:"laps"`
}

// ID returns the session id for log output.
func (sr *SessionRecord) ID() string {
	return rawText(sr.SessionID)
}

type LapRecord struct {
	Time laptime.Value `json:"time"`
}

type Laps []LapRecord

// UnmarshalJSON accepts anything. A laps field that isn't an array is treated as no laps,
// and an entry that isn't an object becomes a lap with no time.
func (l *Laps) UnmarshalJSON(data []byte) error {
	var entries []json.RawMessage

	if err := json.Unmarshal(data, &entries); err != nil {
		*l = nil
		return nil
	}

	laps := make(Laps, 0, len(entries))

	for _, entry := range entries {
		var lap LapRecord

		if err := json.Unmarshal(entry, &lap); err != nil {
			lap = LapRecord{}
		}

		laps = append(laps, lap)
	}

	*l = laps

	return nil
}

// ValidTimes returns, in lap order, the lap times that parse to a strictly positive number
// of seconds.
func (l Laps) ValidTimes() []float64 {
	var times []float64

	for _, lap := range l {
		seconds, ok := laptime.Parse(lap.Time)

		if !ok || seconds <= 0 {
			continue
		}

		times = append(times, seconds)
	}

	return times
}

type SessionSummary struct {
	ID          json.RawMessage `json:"id"`
	Driver      json.RawMessage `json:"driver"`
	Track       json.RawMessage `json:"track"`
	SessionDate json.RawMessage `json:"session_date"`
	Kart        json.RawMessage `json:"kart"`

	FastestLap *string `json:"fastest_lap"`
	AverageLap *string `json:"average_lap"`

	FastestLapSeconds *float64 `json:"fastest_lap_s"`
	AverageLapSeconds *float64 `json:"average_lap_s"`
	LapsCount         int      `json:"laps_count"`

	Consistency       *float64        `json:"consistency_s,omitempty"`
	ConsistencyRating *laptime.Rating `json:"consistency_rating,omitempty"`
}

// Summarizer turns session records into summaries. The zero value produces the standard
// summary; setting Consistency adds the consistency fields.
type Summarizer struct {
	Consistency *laptime.ConsistencyOptions
}

// Summarize uses a zero Summarizer.
func Summarize(record *SessionRecord) (*SessionSummary, bool) {
	return Summarizer{}.Summarize(record)
}

// Summarize returns false when the record has no session_id. Laps without a usable time
// are left out of every derived figure, they never cause a failure.
func (s Summarizer) Summarize(record *SessionRecord) (*SessionSummary, bool) {
	if record == nil || !isTruthy(record.SessionID) {
		return nil, false
	}

	summary := &SessionSummary{
		ID:          record.SessionID,
		Driver:      record.Driver,
		Track:       record.Track,
		SessionDate: record.SessionDate,
		Kart:        record.Kart,
	}

	lapTimes := record.Laps.ValidTimes()

	summary.LapsCount = len(lapTimes)

	if len(lapTimes) == 0 {
		return summary, true
	}

	fastest := lapTimes[0]
	var average float64

	// running mean, a plain sum of finite laps can overflow to +Inf
	for i, lapTime := range lapTimes {
		if lapTime < fastest {
			fastest = lapTime
		}

		average += (lapTime - average) / float64(i+1)
	}

	summary.FastestLapSeconds = &fastest
	summary.AverageLapSeconds = &average
	summary.FastestLap = laptime.FormatOptional(summary.FastestLapSeconds)
	summary.AverageLap = laptime.FormatOptional(summary.AverageLapSeconds)

	if s.Consistency != nil {
		if stdDev, ok := laptime.Consistency(lapTimes, *s.Consistency); ok {
			rating := laptime.RateConsistency(stdDev)

			summary.Consistency = &stdDev
			summary.ConsistencyRating = &rating
		}
	}

	return summary, true
}

// isTruthy reports whether a raw JSON value holds anything: null, false, zero, "" and
// empty arrays or objects all count as missing.
func isTruthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 {
		return false
	}

	switch raw[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		return len(raw) > 2
	case '[', '{':
		return len(bytes.TrimSpace(raw[1:len(raw)-1])) > 0
	default:
		f, err := strconv.ParseFloat(string(raw), 64)

		return err != nil || f != 0
	}
}

// rawText unquotes JSON strings and returns anything else as its JSON text.
func rawText(raw json.RawMessage) string {
	var s string

	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(bytes.TrimSpace(raw))
}
