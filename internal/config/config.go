package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"taskboard/internal/task"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	AppDirName            = "todo"
	ConfigEnv             = "TODO_CONFIG"
)

type Keymap struct {
	Quit          string `toml:"quit"`
	Add           string `toml:"add"`
	Up            string `toml:"up"`
	Down          string `toml:"down"`
	CycleStatus   string `toml:"cycle_status"`
	SetPending    string `toml:"set_pending"`
	SetInProgress string `toml:"set_in_progress"`
	SetDone       string `toml:"set_done"`
	Delete        string `toml:"delete"`
	ClearDone     string `toml:"clear_done"`
	Filter        string `toml:"filter"`
	TagFilter     string `toml:"tag_filter"`
	DarkMode      string `toml:"dark_mode"`
	Detail        string `toml:"detail"`
	Confirm       string `toml:"confirm"`
	Cancel        string `toml:"cancel"`
}

type Config struct {
	DBPath           string `toml:"db_path"`
	DefaultFilter    string `toml:"default_filter"`
	DefaultTagFilter string `toml:"default_tag_filter"`
	LogFile          string `toml:"log_file"`
	Keys             Keymap `toml:"keys"`
}

// ResolveConfigPath returns $TODO_CONFIG when set, otherwise config.toml in
// the user's config directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigEnv)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first
// when the file does not exist. Relative db_path and log_file values are
// resolved against the config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	cfg.Keys = cfg.Keys.withDefaults(defaultConfig().Keys)
	return cfg.resolve(path), nil
}

// StatusFilter is the configured default status filter, or "all" when the
// configured value is not recognised.
func (c Config) StatusFilter() task.StatusFilter {
	f, err := task.ParseStatusFilter(c.DefaultFilter)
	if err != nil {
		return task.FilterAll
	}
	return f
}

// TagFilter is the configured default tag filter, or "all" when the
// configured tag is not in the catalog.
func (c Config) TagFilter() string {
	id := strings.TrimSpace(c.DefaultTagFilter)
	if _, ok := task.ResolveTag(id); ok {
		return id
	}
	return task.FilterAll
}

func (c Config) resolve(path string) Config {
	dir := filepath.Dir(path)
	if c.DBPath != "" && !filepath.IsAbs(c.DBPath) && !strings.HasPrefix(c.DBPath, "file:") {
		c.DBPath = filepath.Join(dir, c.DBPath)
	}
	if c.LogFile != "" && !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(dir, c.LogFile)
	}
	return c
}

func (k Keymap) withDefaults(d Keymap) Keymap {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&k.Quit, d.Quit)
	fill(&k.Add, d.Add)
	fill(&k.Up, d.Up)
	fill(&k.Down, d.Down)
	fill(&k.CycleStatus, d.CycleStatus)
	fill(&k.SetPending, d.SetPending)
	fill(&k.SetInProgress, d.SetInProgress)
	fill(&k.SetDone, d.SetDone)
	fill(&k.Delete, d.Delete)
	fill(&k.ClearDone, d.ClearDone)
	fill(&k.Filter, d.Filter)
	fill(&k.TagFilter, d.TagFilter)
	fill(&k.DarkMode, d.DarkMode)
	fill(&k.Detail, d.Detail)
	fill(&k.Confirm, d.Confirm)
	fill(&k.Cancel, d.Cancel)
	return k
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:           DefaultDBName,
		DefaultFilter:    task.FilterAll,
		DefaultTagFilter: task.FilterAll,
		Keys: Keymap{
			Quit:          "q",
			Add:           "a",
			Up:            "k",
			Down:          "j",
			CycleStatus:   " ",
			SetPending:    "1",
			SetInProgress: "2",
			SetDone:       "3",
			Delete:        "d",
			ClearDone:     "C",
			Filter:        "f",
			TagFilter:     "t",
			DarkMode:      "D",
			Detail:        "i",
			Confirm:       "enter",
			Cancel:        "esc",
		},
	}
}
