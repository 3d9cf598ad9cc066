package config

import (
	"path/filepath"
	"testing"
)

func TestLoadGamesConfig_DefaultWhenEmptyPath(t *testing.T) {
	games, err := LoadGamesConfig("")
	if err != nil {
		t.Fatalf("LoadGamesConfig failed: %v", err)
	}
	if !games.IsKnownGame("shootergame.exe") {
		t.Errorf("built-in list should know ARK's executable")
	}
}

func TestLoadGamesConfig_NormalizesCase(t *testing.T) {
	path := writeFile(t, "games.yaml", `
version: "2"
known_games:
  - " Factorio "
keywords:
  - RAID
exclude:
  - PlayerService.exe
`)

	games, err := LoadGamesConfig(path)
	if err != nil {
		t.Fatalf("LoadGamesConfig failed: %v", err)
	}

	if !games.IsKnownGame("factorio.exe") {
		t.Errorf("known game not normalized: %v", games.KnownGames)
	}
	if !games.HasKeyword("", "boss raid") {
		t.Errorf("keyword not normalized: %v", games.Keywords)
	}
	if !games.IsExcluded("playerservice") {
		t.Errorf("exclude entry should match without .exe: %v", games.Exclude)
	}
}

func TestLoadGamesConfig_MissingFile(t *testing.T) {
	if _, err := LoadGamesConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGamesConfig_UpdateAndSave(t *testing.T) {
	games := DefaultGames()
	before := len(games.KnownGames)

	games.UpdateKnownGames([]string{"Minecraft", "Terraria", "  "})
	if len(games.KnownGames) != before+1 {
		t.Fatalf("KnownGames = %d entries, expected %d", len(games.KnownGames), before+1)
	}

	path := filepath.Join(t.TempDir(), "games.yaml")
	if err := games.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadGamesConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !loaded.IsKnownGame("terraria.exe") {
		t.Errorf("saved list lost Terraria: %v", loaded.KnownGames)
	}
}
