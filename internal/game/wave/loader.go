package wave

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlSchedule is the top-level YAML structure of a wave schedule file.
type yamlSchedule struct {
	Arena yamlArena  `yaml:"arena"`
	Waves []yamlWave `yaml:"waves"`
}

type yamlPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type yamlArena struct {
	ID                   string      `yaml:"id"`
	EnemySpawnPoints     []yamlPoint `yaml:"enemy_spawn_points"`
	PlayerSpawn          yamlPoint   `yaml:"player_spawn"`
	AlternatePlayerSpawn *yamlPoint  `yaml:"alternate_player_spawn"`
	Origin               *yamlPoint  `yaml:"origin"`
}

type yamlWave struct {
	Name              string      `yaml:"name"`
	UseAlternateSpawn bool        `yaml:"use_alternate_spawn"`
	BossPosition      *yamlPoint  `yaml:"boss_position"`
	Groups            []yamlGroup `yaml:"groups"`
}

type yamlGroup struct {
	Prototype        string  `yaml:"prototype"`
	Count            int     `yaml:"count"`
	Interval         string  `yaml:"interval"`
	InitialDelay     string  `yaml:"initial_delay"`
	Boss             bool    `yaml:"boss"`
	ScaleHealth      bool    `yaml:"scale_health"`
	MajorBoss        bool    `yaml:"major_boss"`
	HealthMultiplier float64 `yaml:"health_multiplier"`
}

// LoadSchedule reads and validates a wave schedule YAML file.
//
// Precondition: path must point to a readable YAML file.
// Postcondition: Returns a validated Schedule or a non-nil error.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wave schedule %s: %w", path, err)
	}
	return ParseSchedule(data)
}

// ParseSchedule parses and validates a wave schedule from YAML bytes.
//
// Postcondition: Returns a validated Schedule or a non-nil error.
func ParseSchedule(data []byte) (*Schedule, error) {
	var file yamlSchedule
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing wave schedule YAML: %w", err)
	}
	sched, err := convertSchedule(file)
	if err != nil {
		return nil, err
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	return sched, nil
}

func convertSchedule(f yamlSchedule) (*Schedule, error) {
	sched := &Schedule{
		Arena: Arena{
			ID:                   f.Arena.ID,
			PlayerSpawn:          Point(f.Arena.PlayerSpawn),
			AlternatePlayerSpawn: convertPoint(f.Arena.AlternatePlayerSpawn),
			Origin:               convertPoint(f.Arena.Origin),
		},
	}
	for _, p := range f.Arena.EnemySpawnPoints {
		sched.Arena.EnemySpawnPoints = append(sched.Arena.EnemySpawnPoints, Point(p))
	}
	for i, yw := range f.Waves {
		w := Wave{
			Name:              yw.Name,
			UseAlternateSpawn: yw.UseAlternateSpawn,
			BossPosition:      convertPoint(yw.BossPosition),
		}
		for j, yg := range yw.Groups {
			interval, err := parseDuration(yg.Interval)
			if err != nil {
				return nil, fmt.Errorf("waves[%d].groups[%d].interval: %w", i, j, err)
			}
			delay, err := parseDuration(yg.InitialDelay)
			if err != nil {
				return nil, fmt.Errorf("waves[%d].groups[%d].initial_delay: %w", i, j, err)
			}
			w.Groups = append(w.Groups, EncounterGroup{
				Prototype:        yg.Prototype,
				Count:            yg.Count,
				Interval:         interval,
				InitialDelay:     delay,
				Boss:             yg.Boss,
				ScaleHealth:      yg.ScaleHealth,
				MajorBoss:        yg.MajorBoss,
				HealthMultiplier: yg.HealthMultiplier,
			})
		}
		sched.Waves = append(sched.Waves, w)
	}
	return sched, nil
}

func convertPoint(p *yamlPoint) *Point {
	if p == nil {
		return nil
	}
	out := Point(*p)
	return &out
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
