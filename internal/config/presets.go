package config

import "sort"

// Presets holds named scenarios. Each entry builds a fresh config.
var Presets = map[string]func() *Config{
	"course": DefaultConfig,
	"single": func() *Config {
		cfg := DefaultConfig()
		cfg.Population = 1
		cfg.Traffic.Cars = []TrafficCar{{Lane: 1, Y: -100}}
		return cfg
	},
	"manual": func() *Config {
		cfg := DefaultConfig()
		cfg.Mode = "manual"
		cfg.Population = 1
		return cfg
	},
	"dense": func() *Config {
		cfg := DefaultConfig()
		cfg.Frames = 6000
		cfg.Road.Lanes = 4
		cfg.Road.Width = 240
		cfg.Road.X = 130
		cfg.Road.StartLane = 1
		cfg.Traffic.Cars = nil
		for i := 0; i < 12; i++ {
			y := -150 - float64(i)*200
			cfg.Traffic.Cars = append(cfg.Traffic.Cars,
				TrafficCar{Lane: i % 4, Y: y},
				TrafficCar{Lane: (i + 2) % 4, Y: y},
			)
		}
		return cfg
	},
	"blind": func() *Config {
		cfg := DefaultConfig()
		cfg.Sensor.RayCount = 3
		cfg.Sensor.RayLength = 80
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
