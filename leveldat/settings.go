package leveldat

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
)

// Settings converts the Data to world.Settings.
func (d Data) Settings() *world.Settings {
	gameMode, ok := world.GameModeByID(int(d.GameType))
	if !ok {
		gameMode = world.GameModeSurvival
	}
	difficulty, ok := world.DifficultyByID(int(d.Difficulty))
	if !ok {
		difficulty = world.DifficultyNormal
	}

	return &world.Settings{
		Name:            d.LevelName,
		Spawn:           cube.Pos{int(d.SpawnX), int(d.SpawnY), int(d.SpawnZ)},
		Time:            d.Time,
		TimeCycle:       d.DoDaylightCycle,
		RainTime:        int64(d.RainTime),
		Raining:         d.RainLevel > 0,
		ThunderTime:     int64(d.LightningTime),
		Thundering:      d.LightningLevel > 0,
		WeatherCycle:    d.DoWeatherCycle,
		CurrentTick:     d.CurrentTick,
		DefaultGameMode: gameMode,
		Difficulty:      difficulty,
	}
}

// SetSettings copies s into the Data.
func (d *Data) SetSettings(s *world.Settings) {
	gameModeID, _ := world.GameModeID(s.DefaultGameMode)
	difficultyID, _ := world.DifficultyID(s.Difficulty)

	d.LevelName = s.Name
	d.SpawnX, d.SpawnY, d.SpawnZ = int32(s.Spawn.X()), int32(s.Spawn.Y()), int32(s.Spawn.Z())
	d.Time = s.Time
	d.DoDaylightCycle = s.TimeCycle
	d.RainTime = int32(s.RainTime)
	d.RainLevel = 0
	if s.Raining {
		d.RainLevel = 1
	}
	d.LightningTime = int32(s.ThunderTime)
	d.LightningLevel = 0
	if s.Thundering {
		d.LightningLevel = 1
	}
	d.DoWeatherCycle = s.WeatherCycle
	d.CurrentTick = s.CurrentTick
	d.GameType = int32(gameModeID)
	d.Difficulty = int32(difficultyID)
}
