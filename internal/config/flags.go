package config

import (
	"flag"
	"strings"
)

var (
	flags = flag.NewFlagSet("ripconv", flag.ContinueOnError)

	flagConfig  = flags.String("config", "", "Path to config file")
	flagDebug   = flags.Bool("debug", false, "Enable debug logging")
	flagStrict  = flags.Bool("strict", false, "Fail on unknown attribute format codes")
	flagNoFlipV = flags.Bool("no-flip-v", false, "Keep texture V coordinates as captured")
	flagFormat  = flags.String("format", "", "Comma-separated export formats (obj, glb)")
	flagOutput  = flags.String("output", "", "Output directory")
	flagTexture = flags.String("textures", "", "Re-encode textures next to the output (png, webp)")
	flagWorkers = flags.Int("workers", 0, "Number of parallel workers")
	flagLogFile = flags.String("log-file", "", "Write logs to this file as well")
)

// ParseFlags parses command-line flags, e.g. os.Args[2:] after the command name.
func ParseFlags(args []string) error {
	return flags.Parse(args)
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flags.Args()
}

// PrintDefaults writes flag usage to stderr.
func PrintDefaults() {
	flags.PrintDefaults()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagStrict {
		cfg.Parse.StrictFormats = true
	}
	if *flagNoFlipV {
		cfg.Assemble.FlipV = false
	}
	if *flagFormat != "" {
		var formats []string
		for _, f := range strings.Split(*flagFormat, ",") {
			if f = strings.TrimSpace(f); f != "" {
				formats = append(formats, strings.ToLower(f))
			}
		}
		cfg.Export.Formats = formats
	}
	if *flagOutput != "" {
		cfg.Export.OutputDir = *flagOutput
	}
	if *flagTexture != "" {
		cfg.Export.Textures = strings.ToLower(*flagTexture)
	}
	if *flagWorkers > 0 {
		cfg.Batch.Workers = *flagWorkers
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
