package config

import "github.com/spf13/pflag"

// Flags holds CLI overrides. Only flags the user actually set are applied.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogLevel   string
	LogFile    string
	MaxObjects int
	Extension  string
	Verify     bool

	fs *pflag.FlagSet
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file (rotated)")
	fs.IntVar(&f.MaxObjects, "max-objects", 0, "Maximum object records to decode per archive (default 1)")
	fs.StringVar(&f.Extension, "ext", "", "Output file extension (default .obj)")
	fs.BoolVar(&f.Verify, "verify", false, "Re-parse each output and check vertex/face counts before writing")
	return f
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.changed("max-objects") {
		cfg.Decode.MaxObjects = f.MaxObjects
	}
	if f.changed("ext") {
		cfg.Export.Extension = f.Extension
	}
	if f.changed("verify") {
		cfg.Export.Verify = f.Verify
	}
}
