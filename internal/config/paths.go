package config

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory.
const HomeEnv = "AGENTCHAT_HOME"

// Paths are the on-disk locations agentchat reads and writes.
type Paths struct {
	Base   string // ~/.agentchat
	Config string // <base>/config.yaml
	Data   string // <base>/data
	Logs   string // <base>/logs
}

// ResolvePaths derives Paths from $AGENTCHAT_HOME, or ~/.agentchat.
func ResolvePaths() (Paths, error) {
	base := os.Getenv(HomeEnv)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, ".agentchat")
	}
	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// CacheDB is the SQLite file holding the dataset cache and lookup history.
func (p Paths) CacheDB() string {
	return filepath.Join(p.Data, "cache.db")
}

// LogFile names a per-binary log file under Logs.
func (p Paths) LogFile(name string) string {
	return filepath.Join(p.Logs, name+".log")
}

func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
