package lapindex

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"justapengu.in/lapindex/pkg/laptime"
)

var fastestSessionColor = color.New(color.FgGreen, color.Bold)

// Report prints one line per session followed by totals. The session holding the fastest
// lap of the whole index is highlighted.
func Report(w io.Writer, index *Index) error {
	var fastest *SessionSummary
	var totalLaps int64

	for _, session := range index.Sessions {
		totalLaps += int64(session.LapsCount)

		if session.FastestLapSeconds == nil {
			continue
		}

		if fastest == nil || *session.FastestLapSeconds < *fastest.FastestLapSeconds {
			fastest = session
		}
	}

	for _, session := range index.Sessions {
		line := fmt.Sprintf("%-28s %-20s %4d laps  fastest %-10s average %-10s\n",
			displayText(session.ID),
			displayText(session.Driver),
			session.LapsCount,
			displayTime(session.FastestLap),
			displayTime(session.AverageLap),
		)

		var err error

		if session == fastest {
			_, err = fastestSessionColor.Fprint(w, line)
		} else {
			_, err = io.WriteString(w, line)
		}

		if err != nil {
			return err
		}
	}

	bestLap := "-"

	if fastest != nil {
		bestLap = laptime.Format(*fastest.FastestLapSeconds)
	}

	_, err := fmt.Fprintf(w, "\n%s sessions, %s laps, best lap %s\n",
		humanize.Comma(int64(len(index.Sessions))),
		humanize.Comma(totalLaps),
		bestLap,
	)

	return err
}

func displayText(raw []byte) string {
	text := rawText(raw)

	if text == "" || text == "null" {
		return "-"
	}

	return text
}

func displayTime(formatted *string) string {
	if formatted == nil {
		return "-"
	}

	return *formatted
}
