package lapindex

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"justapengu.in/lapindex/pkg/laptime"
)

func decodeRecord(t *testing.T, doc string) *SessionRecord {
	t.Helper()

	var record *SessionRecord

	if err := json.Unmarshal([]byte(doc), &record); err != nil {
		t.Fatalf("could not decode test record: %s", err)
	}

	return record
}

func TestSummarize(t *testing.T) {
	t.Run("Mixed valid and invalid laps", func(t *testing.T) {
		record := decodeRecord(t, `{
			"session_id": "A",
			"driver": "Ayrton",
			"laps": [
				{"lap": 1, "time": "1:00.000"},
				{"lap": 2, "time": "0:50.000"},
				{"lap": 3, "time": "-1"},
				{"lap": 4, "time": ""},
				{"lap": 5, "time": "0:55.000"}
			]
		}`)

		summary, ok := Summarize(record)

		if !ok {
			t.Fatal("Expected a summary")
		}

		if summary.LapsCount != 3 {
			t.Errorf("Expected 3 laps, got %d", summary.LapsCount)
		}

		if summary.FastestLapSeconds == nil || *summary.FastestLapSeconds != 50 {
			t.Errorf("Expected fastest lap of 50s, got %v", summary.FastestLapSeconds)
		}

		if summary.AverageLapSeconds == nil || math.Abs(*summary.AverageLapSeconds-55) > 1e-9 {
			t.Errorf("Expected average lap of 55s, got %v", summary.AverageLapSeconds)
		}

		if summary.FastestLap == nil || *summary.FastestLap != "00:50.000" {
			t.Errorf("Expected fastest lap 00:50.000, got %v", summary.FastestLap)
		}

		if summary.AverageLap == nil || *summary.AverageLap != "00:55.000" {
			t.Errorf("Expected average lap 00:55.000, got %v", summary.AverageLap)
		}

		if string(summary.ID) != `"A"` {
			t.Errorf("Expected id \"A\", got %s", summary.ID)
		}
	})

	t.Run("Numeric and string laps mix", func(t *testing.T) {
		record := decodeRecord(t, `{"session_id": "B", "laps": [{"time": 61.5}, {"time": "61.5"}, {"time": 0}, {"time": null}, {}, "garbage", {"time": "1:2:3"}]}`)

		summary, ok := Summarize(record)

		if !ok {
			t.Fatal("Expected a summary")
		}

		if summary.LapsCount != 2 || *summary.FastestLap != "01:01.500" {
			t.Errorf("Unexpected summary: %d laps, fastest %v", summary.LapsCount, summary.FastestLap)
		}
	})

	t.Run("Extreme lap times", func(t *testing.T) {
		record := decodeRecord(t, `{"session_id": "huge", "laps": [{"time": 1e308}, {"time": 1e308}]}`)

		summary, ok := Summarize(record)

		if !ok {
			t.Fatal("Expected a summary")
		}

		if summary.LapsCount != 2 {
			t.Errorf("Expected 2 laps, got %d", summary.LapsCount)
		}

		if summary.AverageLapSeconds == nil || math.IsInf(*summary.AverageLapSeconds, 0) || *summary.AverageLapSeconds != 1e308 {
			t.Errorf("Expected a finite average of 1e308, got %v", summary.AverageLapSeconds)
		}

		if _, err := json.Marshal(summary); err != nil {
			t.Logf("Could not encode summary: %s", err)
			t.Fail()
		}
	})

	t.Run("No laps", func(t *testing.T) {
		record := decodeRecord(t, `{"session_id": "C", "driver": "Jim", "track": {"name": "Lydden", "maps_link": "https://example.com"}, "session_date": "2024-05-01", "kart": "12", "laps": []}`)

		summary, ok := Summarize(record)

		if !ok {
			t.Fatal("Expected a summary")
		}

		if summary.LapsCount != 0 {
			t.Errorf("Expected 0 laps, got %d", summary.LapsCount)
		}

		if summary.FastestLap != nil || summary.AverageLap != nil || summary.FastestLapSeconds != nil || summary.AverageLapSeconds != nil {
			t.Error("Expected derived fields to be empty")
		}

		if string(summary.Driver) != `"Jim"` || string(summary.SessionDate) != `"2024-05-01"` || string(summary.Kart) != `"12"` {
			t.Errorf("Metadata was not passed through: %s %s %s", summary.Driver, summary.SessionDate, summary.Kart)
		}

		if string(summary.Track) != `{"name": "Lydden", "maps_link": "https://example.com"}` {
			t.Errorf("Track was not passed through unchanged: %s", summary.Track)
		}
	})

	t.Run("Laps missing or not a list", func(t *testing.T) {
		for _, doc := range []string{`{"session_id": "D"}`, `{"session_id": "D", "laps": null}`, `{"session_id": "D", "laps": {"time": "1:00.000"}}`} {
			summary, ok := Summarize(decodeRecord(t, doc))

			if !ok || summary.LapsCount != 0 {
				t.Errorf("%s: expected an empty summary", doc)
			}
		}
	})

	t.Run("Missing session id", func(t *testing.T) {
		docs := []string{
			`{"driver": "X", "laps": [{"time": "1:00.000"}]}`,
			`{"session_id": null}`,
			`{"session_id": ""}`,
			`{"session_id": 0}`,
			`{"session_id": false}`,
			`{"session_id": []}`,
		}

		for _, doc := range docs {
			if summary, ok := Summarize(decodeRecord(t, doc)); ok || summary != nil {
				t.Errorf("%s: expected the session to be dropped", doc)
			}
		}

		if _, ok := Summarize(nil); ok {
			t.Error("Expected a nil record to be dropped")
		}
	})

	t.Run("Numeric session id", func(t *testing.T) {
		summary, ok := Summarize(decodeRecord(t, `{"session_id": 42}`))

		if !ok || string(summary.ID) != "42" {
			t.Errorf("Expected numeric id to be kept, got %v", summary)
		}
	})

	t.Run("Summarizing twice gives the same summary", func(t *testing.T) {
		record := decodeRecord(t, `{"session_id": "E", "laps": [{"time": "0:40.123"}, {"time": "0:41.877"}]}`)

		first, _ := Summarize(record)
		second, _ := Summarize(record)

		if !reflect.DeepEqual(first, second) {
			t.Errorf("Summaries differ: %+v, %+v", first, second)
		}
	})
}

func TestSummarizerConsistency(t *testing.T) {
	record := decodeRecord(t, `{"session_id": "F", "laps": [{"time": "0:50.000"}, {"time": "0:50.200"}, {"time": "0:50.400"}, {"time": "1:10.000"}]}`)

	summary, ok := Summarize(record)

	if !ok || summary.Consistency != nil || summary.ConsistencyRating != nil {
		t.Fatal("Expected no consistency without options")
	}

	summary, ok = Summarizer{Consistency: &laptime.DefaultConsistencyOptions}.Summarize(record)

	if !ok || summary.Consistency == nil || summary.ConsistencyRating == nil {
		t.Fatal("Expected consistency to be computed")
	}

	if *summary.ConsistencyRating != laptime.RatingExcellent {
		t.Errorf("Expected an excellent rating, got %s (%f)", *summary.ConsistencyRating, *summary.Consistency)
	}
}

func TestSessionSummaryJSON(t *testing.T) {
	summary, _ := Summarize(decodeRecord(t, `{"session_id": "G", "driver": "Nigel"}`))

	out, err := json.Marshal(summary)

	if err != nil {
		t.Fatal(err)
	}

	expected := `{"id":"G","driver":"Nigel","track":null,"session_date":null,"kart":null,"fastest_lap":null,"average_lap":null,"fastest_lap_s":null,"average_lap_s":null,"laps_count":0}`

	if string(out) != expected {
		t.Errorf("Unexpected encoding:\n%s\nexpected:\n%s", out, expected)
	}
}
