package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/internal/parser"
	"github.com/arena-replay/rltrack/pkg/core"
)

func f64(v float64) *float64 { return &v }

func testInfo() *core.ReplayInfo {
	return &core.ReplayInfo{
		GameType:     "TAGame.Replay_Soccar_TA",
		TeamSize:     1,
		MapName:      "eurostadium_p",
		TotalSeconds: 300,
		NumFrames:    9000,
		RecordFPS:    30,
		PlayerStats:  []core.PlayerStat{{Name: "Alice", Score: 100}},
	}
}

func record(t *testing.T, b *Backend) {
	t.Helper()

	ball := &core.Track{ActorID: 3, Name: "Ball_TA_Default", Class: core.ClassBall, Samples: []core.Sample{
		{Time: 0, X: f64(0), Y: f64(0), Z: f64(93), Kind: core.KindInitial, ActorID: 3},
	}}
	car := &core.Track{ActorID: 10, Name: "Car_TA_Octane", Class: core.ClassCar, PlayerName: "Alice", Samples: []core.Sample{
		{Time: 1, X: f64(1), Y: nil, Z: f64(17), Kind: core.KindUpdate, ActorID: 10},
	}}
	player := &core.PlayerTimeline{
		PlayerName:    "Alice",
		RecordActorID: 20,
		Cars:          []core.CarRef{{ActorID: 10, Name: "Car_TA_Octane"}},
		Samples:       car.Samples,
	}

	if err := b.RecordBall(ball); err != nil {
		t.Fatalf("RecordBall failed: %v", err)
	}
	if err := b.RecordCar(car); err != nil {
		t.Fatalf("RecordCar failed: %v", err)
	}
	if err := b.RecordPlayer(player); err != nil {
		t.Fatalf("RecordPlayer failed: %v", err)
	}
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer gz.Close()
		r = gz
	}

	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return doc
}

func TestNew(t *testing.T) {
	cfg := config.MemoryConfig{
		OutputDir:      "/tmp/test",
		CompressOutput: true,
	}
	b := New(cfg)

	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
}

func TestInitAndClose(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestStartReplay_ResetsBuffers(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})

	if err := b.StartReplay(testInfo(), "first"); err != nil {
		t.Fatalf("StartReplay failed: %v", err)
	}
	record(t, b)

	if err := b.StartReplay(testInfo(), "second"); err != nil {
		t.Fatalf("StartReplay failed: %v", err)
	}
	if b.ball != nil || len(b.cars) != 0 || len(b.players) != 0 {
		t.Error("expected buffers to be reset")
	}
	if b.name != "second" {
		t.Errorf("expected name=second, got %s", b.name)
	}
}

func TestEndReplay_WritesThreeDocuments(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})

	if err := b.StartReplay(testInfo(), "replays/final match.json"); err != nil {
		t.Fatalf("StartReplay failed: %v", err)
	}
	record(t, b)
	if err := b.EndReplay(); err != nil {
		t.Fatalf("EndReplay failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "final_match_ball.json"),
		filepath.Join(dir, "final_match_cars.json"),
		filepath.Join(dir, "final_match_players.json"),
	}
	got := b.ExportedFiles()
	if len(got) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	ball := readJSON(t, want[0])
	if ball["ball_actor_id"] != 3.0 {
		t.Errorf("expected ball_actor_id=3, got %v", ball["ball_actor_id"])
	}

	cars := readJSON(t, want[1])
	if cars["total_cars"] != 1.0 {
		t.Errorf("expected total_cars=1, got %v", cars["total_cars"])
	}
	info := cars["replay_info"].(map[string]any)
	if info["team_size"] != 1.0 {
		t.Errorf("expected team_size=1, got %v", info["team_size"])
	}
	car := cars["cars"].([]any)[0].(map[string]any)
	pos := car["positions"].([]any)[0].(map[string]any)
	if pos["y"] != nil {
		t.Errorf("expected unsanitized null y, got %v", pos["y"])
	}

	players := readJSON(t, want[2])
	alice := players["players"].(map[string]any)["Alice"].(map[string]any)
	if alice["player_info"].(map[string]any)["score"] != 100.0 {
		t.Errorf("expected score=100, got %v", alice["player_info"])
	}
}

func TestEndReplay_CompressedAndSanitized(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true, Sanitize: true})

	if err := b.StartReplay(testInfo(), "final.json.gz"); err != nil {
		t.Fatalf("StartReplay failed: %v", err)
	}
	record(t, b)
	if err := b.EndReplay(); err != nil {
		t.Fatalf("EndReplay failed: %v", err)
	}

	path := filepath.Join(dir, "final_cars.json.gz")
	cars := readJSON(t, path)
	car := cars["cars"].([]any)[0].(map[string]any)
	pos := car["positions"].([]any)[0].(map[string]any)
	if pos["y"] != 0.0 {
		t.Errorf("expected sanitized y=0, got %v", pos["y"])
	}
	if _, ok := pos["linear_velocity"]; !ok {
		t.Error("expected sanitized sample to carry linear_velocity")
	}
}

func TestEndReplay_MissingMetadata(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})

	if err := b.StartReplay(nil, "broken"); err != nil {
		t.Fatalf("StartReplay failed: %v", err)
	}
	record(t, b)

	err := b.EndReplay()
	if !errors.Is(err, parser.ErrMissingRequiredMetadata) {
		t.Fatalf("expected ErrMissingRequiredMetadata, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files written, got %d", len(entries))
	}
}

func TestFileBase(t *testing.T) {
	tests := map[string]string{
		"final.json":             "final",
		"dir/final.json.gz":      "final",
		"match 1: overtime.json": "match_1__overtime",
		"":                       "replay",
		"noext":                  "noext",
	}
	for in, want := range tests {
		if got := fileBase(in); got != want {
			t.Errorf("fileBase(%q) = %q, want %q", in, got, want)
		}
	}
}
