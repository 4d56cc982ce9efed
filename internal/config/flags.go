package config

import "flag"

// Flags are command-line overrides. Zero values leave the config alone.
type Flags struct {
	Config string
	Debug  bool
	Method string
	Speed  int
	Single bool
	XZ     bool
	Store  string
}

// BindFlags registers the overrides on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Method, "method", "", "Traversal method: auto, standard, predictive, valence")
	fs.IntVar(&f.Speed, "speed", -1, "Encoding speed 0 (smallest) to 10 (fastest)")
	fs.BoolVar(&f.Single, "single", false, "Share one connectivity between all attributes")
	fs.BoolVar(&f.XZ, "xz", false, "Wrap encoded output in xz")
	fs.StringVar(&f.Store, "store", "", "Path to the mesh archive")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Method != "" {
		cfg.Encoder.Method = f.Method
	}
	if f.Speed >= 0 {
		cfg.Encoder.Speed = f.Speed
	}
	if f.Single {
		cfg.Encoder.SingleConnectivity = true
	}
	if f.XZ {
		cfg.Output.XZ = true
	}
	if f.Store != "" {
		cfg.Store.Path = f.Store
	}
}
