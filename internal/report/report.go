// Package report renders a human-readable summary of an extracted replay.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/arena-replay/rltrack/internal/geo"
	"github.com/arena-replay/rltrack/internal/trajectory"
	"github.com/arena-replay/rltrack/pkg/core"
)

const rule = "================================================================================"

// Team groups scoreboard lines by team number.
type Team struct {
	Number  int
	Players []core.PlayerStat
}

// TrackSummary is the activity and movement summary of one ball or car track.
type TrackSummary struct {
	ActorID  int
	Name     string
	Player   string
	Activity trajectory.ActivityCount
	Movement geo.Stats
}

// PlayerSummary lists the cars one resolved player drove.
type PlayerSummary struct {
	Name      string
	CarActors []int
	Positions int
	Active    int
}

// Summary is everything the report prints, computed once from a replay.
type Summary struct {
	Info           *core.ReplayInfo
	MetadataErr    error
	Teams          []Team
	CarNames       []string
	FirstFrameCars []core.CarRef
	Ball           *TrackSummary
	Cars           []TrackSummary
	Players        []PlayerSummary
	Stats          core.ExtractStats
}

// Build computes the summary of replay.
func Build(replay *core.Replay) Summary {
	s := Summary{
		Info:           replay.Info,
		MetadataErr:    replay.MetadataErr,
		Teams:          teams(replay.Info),
		CarNames:       sortedUnique(replay.CarNames),
		FirstFrameCars: append([]core.CarRef(nil), replay.FirstFrameCars...),
		Stats:          replay.Stats,
	}
	sort.Slice(s.FirstFrameCars, func(i, j int) bool {
		if s.FirstFrameCars[i].Name != s.FirstFrameCars[j].Name {
			return s.FirstFrameCars[i].Name < s.FirstFrameCars[j].Name
		}
		return s.FirstFrameCars[i].ActorID < s.FirstFrameCars[j].ActorID
	})

	if replay.Ball != nil {
		ball := summarizeTrack(*replay.Ball)
		s.Ball = &ball
	}
	for _, car := range replay.Cars {
		s.Cars = append(s.Cars, summarizeTrack(car))
	}
	for _, p := range replay.Players {
		s.Players = append(s.Players, PlayerSummary{
			Name:      p.PlayerName,
			CarActors: p.CarActorIDs(),
			Positions: len(p.Samples),
			Active:    trajectory.CountActivity(p.Samples).Active,
		})
	}
	return s
}

func summarizeTrack(t core.Track) TrackSummary {
	return TrackSummary{
		ActorID:  t.ActorID,
		Name:     t.Name,
		Player:   t.PlayerName,
		Activity: trajectory.CountActivity(t.Samples),
		Movement: geo.Summarize(t.Samples),
	}
}

func teams(info *core.ReplayInfo) []Team {
	if info == nil {
		return nil
	}
	byNumber := make(map[int]*Team)
	var order []int
	for _, ps := range info.PlayerStats {
		team, ok := byNumber[ps.Team]
		if !ok {
			team = &Team{Number: ps.Team}
			byNumber[ps.Team] = team
			order = append(order, ps.Team)
		}
		team.Players = append(team.Players, ps)
	}
	sort.Ints(order)

	out := make([]Team, 0, len(order))
	for _, n := range order {
		out = append(out, *byNumber[n])
	}
	return out
}

func sortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Write prints s to w.
func Write(w io.Writer, s Summary) error {
	p := &printer{w: w}

	p.section("REPLAY SUMMARY")
	if s.Info != nil {
		p.linef("Game Type: %s", s.Info.GameType)
		p.linef("Team Size: %d", s.Info.TeamSize)
		p.linef("Match Type: %s", s.Info.MatchType)
		p.linef("Map: %s", s.Info.MapName)
		p.linef("Duration: %.1fs (%d frames at %.0f fps)", s.Info.TotalSeconds, s.Info.NumFrames, s.Info.RecordFPS)
		if !s.Info.Date.IsZero() {
			p.linef("Date: %s", s.Info.Date.Format("2006-01-02 15:04:05"))
		}
	} else {
		p.linef("Metadata unavailable: %v", s.MetadataErr)
	}

	players := 0
	for _, t := range s.Teams {
		players += len(t.Players)
	}
	p.section(fmt.Sprintf("PLAYERS (%d total)", players))
	for _, t := range s.Teams {
		p.linef("")
		p.linef("Team %d (%d players):", t.Number, len(t.Players))
		for _, ps := range t.Players {
			bot := ""
			if ps.IsBot {
				bot = " [BOT]"
			}
			p.linef("  - %s%s", ps.Name, bot)
			p.linef("    Score: %d | Goals: %d | Saves: %d | Shots: %d", ps.Score, ps.Goals, ps.Saves, ps.Shots)
		}
	}

	p.section("CAR ACTORS IN REPLAY")
	p.linef("Total unique Car_TA actors: %d", len(s.CarNames))
	p.linef("")
	p.linef("Car Actor Names:")
	for i, name := range s.CarNames {
		p.linef("  %d. %s", i+1, name)
	}

	if len(s.FirstFrameCars) > 0 {
		p.section("CAR ACTOR IDs (in first frame)")
		for _, c := range s.FirstFrameCars {
			p.linef("  %s -> Actor ID: %d", c.Name, c.ActorID)
		}
	}

	p.section("TRAJECTORIES")
	if p.err == nil {
		p.err = writeTracks(w, s)
	}

	if len(s.Players) > 0 {
		p.section("RESOLVED PLAYERS")
		for _, ps := range s.Players {
			p.linef("  %s: cars %s, %d positions (%d active)", ps.Name, joinInts(ps.CarActors), ps.Positions, ps.Active)
		}
	}

	p.section("EXTRACTION")
	p.linef("Frames: %d | New actors: %d | Updates: %d", s.Stats.Frames, s.Stats.NewActors, s.Stats.UpdatedActors)
	p.linef("Samples: %d appended, %d dropped", s.Stats.SamplesAppended, s.Stats.SamplesDropped)
	p.linef("Bindings ignored: %d | Delimited names: %d | Out of order frames: %d",
		s.Stats.BindingsIgnored, s.Stats.DelimitedNames, s.Stats.OutOfOrderFrames)
	return p.err
}

func writeTracks(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tACTOR\tPLAYER\tTOTAL\tACTIVE\tSLEEPING\tDISTANCE\tMEAN SPEED\tMAX SPEED")
	row := func(entity string, t TrackSummary) {
		player := t.Player
		if player == "" {
			player = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%.0f\t%.0f\t%.0f\n",
			entity, t.ActorID, player,
			t.Activity.Total(), t.Activity.Active, t.Activity.Sleeping,
			t.Movement.PlanarLength, t.Movement.MeanSpeed, t.Movement.MaxSpeed)
	}
	if s.Ball != nil {
		row("ball", *s.Ball)
	}
	for _, c := range s.Cars {
		row("car", c)
	}
	return tw.Flush()
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) linef(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) section(title string) {
	p.linef("")
	p.linef("%s", rule)
	p.linef("%s", title)
	p.linef("%s", rule)
}
