package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type serverConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

type trackingConfig struct {
	SweepIntervalSecs int `yaml:"sweepIntervalSecs" validate:"gte=0"`
	EntityTimeoutSecs int `yaml:"entityTimeoutSecs" validate:"gte=0"`
	HistoryLimit      int `yaml:"historyLimit" validate:"gte=0"`
}

type userConfig struct {
	ID       string `yaml:"id" validate:"required"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	Role     string `yaml:"role"`
}

// feedConfig wires an optional external AVL feed (GTFS-RT VehiclePositions)
// into the same live map as the ambulances.
type feedConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	PollIntervalSecs    int    `yaml:"pollIntervalSecs" validate:"gte=0"`
	TimeoutSecs         int    `yaml:"timeoutSecs" validate:"gte=0"`
}

type appConfig struct {
	Server   serverConfig   `yaml:"server"`
	Tracking trackingConfig `yaml:"tracking"`
	Users    []userConfig   `yaml:"users"`
	Feed     feedConfig     `yaml:"feed"`
}

func (c trackingConfig) sweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}

func (c trackingConfig) entityTimeout() time.Duration {
	return time.Duration(c.EntityTimeoutSecs) * time.Second
}

// defaultUsers matches the seed accounts of the original deployment.
func defaultUsers() []userConfig {
	return []userConfig{
		{ID: "1", Username: "admin", Password: "admin123", Role: "admin"},
		{ID: "2", Username: "superadmin", Password: "super123", Role: "admin"},
	}
}

func defaultConfig() appConfig {
	return appConfig{
		Server: serverConfig{Port: 3000},
		Tracking: trackingConfig{
			SweepIntervalSecs: 60,
			EntityTimeoutSecs: 120,
			HistoryLimit:      20,
		},
		Users: defaultUsers(),
		Feed:  feedConfig{PollIntervalSecs: 10, TimeoutSecs: 10},
	}
}

// loadConfig reads and validates the YAML config at path. A missing file is
// not an error: the built-in defaults stand in, matching the original's
// zero-config startup.
func loadConfig(path string) (appConfig, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return cfg, fmt.Errorf("invalid server config: %w", err)
	}
	if err := v.Struct(cfg.Tracking); err != nil {
		return cfg, fmt.Errorf("invalid tracking config: %w", err)
	}
	if err := v.Struct(cfg.Feed); err != nil {
		return cfg, fmt.Errorf("invalid feed config: %w", err)
	}
	for i, u := range cfg.Users {
		if err := v.Struct(u); err != nil {
			return cfg, fmt.Errorf("invalid user entry %d: %w", i, err)
		}
	}

	if cfg.Tracking.SweepIntervalSecs == 0 {
		cfg.Tracking.SweepIntervalSecs = 60
	}
	if cfg.Tracking.EntityTimeoutSecs == 0 {
		cfg.Tracking.EntityTimeoutSecs = 120
	}
	if cfg.Tracking.HistoryLimit == 0 {
		cfg.Tracking.HistoryLimit = 20
	}
	if len(cfg.Users) == 0 {
		cfg.Users = defaultUsers()
	}
	return cfg, nil
}
