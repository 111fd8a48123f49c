package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arena-replay/rltrack/pkg/core"
)

// ErrMissingRequiredMetadata is returned when top-level replay properties
// needed for metadata-dependent output are absent.
var ErrMissingRequiredMetadata = errors.New("missing required replay metadata")

// RequiredProperties must be present for ParseReplayInfo to succeed.
var RequiredProperties = []string{
	"MapName",
	"TeamSize",
	"TotalSecondsPlayed",
	"NumFrames",
	"RecordFPS",
}

// replayDateLayout is the layout recordings use for the Date property.
const replayDateLayout = "2006-01-02 15-04-05"

type rawPlayerStat struct {
	Name  string  `json:"Name"`
	Team  float64 `json:"Team"`
	Score float64 `json:"Score"`
	Goals float64 `json:"Goals"`
	Saves float64 `json:"Saves"`
	Shots float64 `json:"Shots"`
	IsBot bool    `json:"bBot"`
}

// ParseReplayInfo extracts pass-through metadata from the document properties.
// Returns ErrMissingRequiredMetadata (wrapped, naming the absent keys) when
// any of RequiredProperties is missing. Trajectory extraction does not depend
// on this and proceeds regardless.
func ParseReplayInfo(doc *Document) (*core.ReplayInfo, error) {
	var missing []string
	for _, key := range RequiredProperties {
		if raw, ok := doc.Properties[key]; !ok || isNull(raw) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequiredMetadata, strings.Join(missing, ", "))
	}

	info := &core.ReplayInfo{GameType: doc.GameType}
	var err error

	if info.MapName, err = stringProperty(doc, "MapName"); err != nil {
		return nil, err
	}
	if info.TeamSize, err = intProperty(doc, "TeamSize"); err != nil {
		return nil, err
	}
	if info.TotalSeconds, err = floatProperty(doc, "TotalSecondsPlayed"); err != nil {
		return nil, err
	}
	if info.NumFrames, err = intProperty(doc, "NumFrames"); err != nil {
		return nil, err
	}
	if info.RecordFPS, err = floatProperty(doc, "RecordFPS"); err != nil {
		return nil, err
	}

	// optional
	if _, ok := doc.Properties["MatchType"]; ok {
		if info.MatchType, err = stringProperty(doc, "MatchType"); err != nil {
			return nil, err
		}
	}
	if _, ok := doc.Properties["Date"]; ok {
		date, err := stringProperty(doc, "Date")
		if err != nil {
			return nil, err
		}
		if t, err := time.ParseInLocation(replayDateLayout, date, time.UTC); err == nil {
			info.Date = t
		}
	}
	if raw, ok := doc.Properties["PlayerStats"]; ok && !isNull(raw) {
		var stats []rawPlayerStat
		if err := json.Unmarshal(raw, &stats); err != nil {
			return nil, fmt.Errorf("error unmarshalling PlayerStats: %w", err)
		}
		for _, s := range stats {
			info.PlayerStats = append(info.PlayerStats, core.PlayerStat{
				Name:  s.Name,
				Team:  int(s.Team),
				Score: int(s.Score),
				Goals: int(s.Goals),
				Saves: int(s.Saves),
				Shots: int(s.Shots),
				IsBot: s.IsBot,
			})
		}
	}

	return info, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func stringProperty(doc *Document, key string) (string, error) {
	var s string
	if err := json.Unmarshal(doc.Properties[key], &s); err != nil {
		return "", fmt.Errorf("error reading property %s: %w", key, err)
	}
	return s, nil
}

func floatProperty(doc *Document, key string) (float64, error) {
	var f float64
	if err := json.Unmarshal(doc.Properties[key], &f); err != nil {
		return 0, fmt.Errorf("error reading property %s: %w", key, err)
	}
	return f, nil
}

func intProperty(doc *Document, key string) (int, error) {
	f, err := floatProperty(doc, key)
	if err != nil {
		return 0, err
	}
	v, err := intFromNumber(f)
	if err != nil {
		return 0, fmt.Errorf("error reading property %s: %w", key, err)
	}
	return v, nil
}
