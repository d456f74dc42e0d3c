package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"tasklogger/internal/persist"
)

const (
	AppName               = "tasklogger"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultPrefsName      = "tasks_prefs.toml"
	DefaultLogName        = "tasklogger.log"
)

type Keymap struct {
	Quit          string `toml:"quit"`
	Add           string `toml:"add"`
	Up            string `toml:"up"`
	Down          string `toml:"down"`
	Toggle        string `toml:"toggle"`
	Delete        string `toml:"delete"`
	Detail        string `toml:"detail"`
	Confirm       string `toml:"confirm"`
	Cancel        string `toml:"cancel"`
	Edit          string `toml:"edit"`
	Save          string `toml:"save"`
	NextField     string `toml:"next_field"`
	PrevField     string `toml:"prev_field"`
	SwitchBackend string `toml:"switch_backend"`
	Reload        string `toml:"reload"`
}

type Config struct {
	DBPath    string `toml:"db_path"`
	PrefsPath string `toml:"prefs_path"`
	Backend   string `toml:"backend"`
	LogPath   string `toml:"log_path"`
	Keys      Keymap `toml:"keys"`

	// dir is where the config file lives; relative paths resolve against it.
	dir string
}

// ResolveConfigPath returns the per-user config file location, falling back
// to the working directory when no user config dir is known.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first
// if the file does not exist.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	cfg.dir = filepath.Dir(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
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
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = DefaultPrefsName
	}
	if _, err := persist.ParseMode(cfg.Backend); err != nil {
		return cfg, fmt.Errorf("parse %s: backend: %w", path, err)
	}
	cfg.Keys = cfg.Keys.withDefaults(defaultConfig().Keys)
	return cfg, nil
}

// Mode is the backend selected at startup.
func (c Config) Mode() persist.Mode {
	m, err := persist.ParseMode(c.Backend)
	if err != nil {
		return persist.ModeRelational
	}
	return m
}

// ResolvedDBPath is DBPath made absolute against the config directory.
func (c Config) ResolvedDBPath() string {
	return c.resolve(c.DBPath)
}

// ResolvedPrefsPath is PrefsPath made absolute against the config directory.
func (c Config) ResolvedPrefsPath() string {
	return c.resolve(c.PrefsPath)
}

// ResolvedLogPath is LogPath made absolute against the config directory.
// An empty LogPath disables logging and stays empty.
func (c Config) ResolvedLogPath() string {
	if c.LogPath == "" {
		return ""
	}
	return c.resolve(c.LogPath)
}

func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
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

// withDefaults fills keys left out of an older config file.
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
	fill(&k.Toggle, d.Toggle)
	fill(&k.Delete, d.Delete)
	fill(&k.Detail, d.Detail)
	fill(&k.Confirm, d.Confirm)
	fill(&k.Cancel, d.Cancel)
	fill(&k.Edit, d.Edit)
	fill(&k.Save, d.Save)
	fill(&k.NextField, d.NextField)
	fill(&k.PrevField, d.PrevField)
	fill(&k.SwitchBackend, d.SwitchBackend)
	fill(&k.Reload, d.Reload)
	return k
}

// Default returns the built-in configuration with paths relative to dir.
func Default(dir string) Config {
	cfg := defaultConfig()
	cfg.dir = dir
	return cfg
}

func defaultConfig() Config {
	return Config{
		DBPath:    DefaultDBName,
		PrefsPath: DefaultPrefsName,
		Backend:   persist.ModeRelational.String(),
		LogPath:   DefaultLogName,
		Keys: Keymap{
			Quit:          "q",
			Add:           "a",
			Up:            "k",
			Down:          "j",
			Toggle:        " ",
			Delete:        "d",
			Detail:        "enter",
			Confirm:       "enter",
			Cancel:        "esc",
			Edit:          "e",
			Save:          "ctrl+s",
			NextField:     "tab",
			PrevField:     "shift+tab",
			SwitchBackend: "b",
			Reload:        "r",
		},
	}
}
