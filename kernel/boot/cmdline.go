package boot

import "strings"

// BootConfig is the kernel's only configuration surface: the handful of
// settings an operator can influence by editing the boot command line, the
// way the teacher's multiboot package turns the raw command-line string
// into a lookup table (cmdLineKV) that hal.DetectHardware consults.
type BootConfig struct {
	// LogLevel is one of "debug", "info", "warn", "error"; defaults to "info".
	LogLevel string
	// RootFsType names the FilesystemType to mount at "/"; defaults to "ramfs".
	RootFsType string
	// InitTaskName overrides the name given to the first task the
	// scheduler creates; defaults to "shell".
	InitTaskName string
}

// DefaultBootConfig returns the configuration used when the command line
// is empty or omits a setting.
func DefaultBootConfig() BootConfig {
	return BootConfig{
		LogLevel:     "info",
		RootFsType:   "ramfs",
		InitTaskName: "shell",
	}
}

// ParseCmdline tokenizes a "key=value key2=value2 flag3" command line into
// a BootConfig, overriding only the keys present. Unknown keys are
// ignored: the command line is meant to be resilient to bootloader
// scripts carrying entries this kernel revision does not understand.
func ParseCmdline(cmdline string) BootConfig {
	cfg := DefaultBootConfig()

	for _, tok := range strings.Fields(cmdline) {
		key, value, hasValue := strings.Cut(tok, "=")
		if !hasValue {
			continue
		}
		switch key {
		case "loglevel":
			cfg.LogLevel = value
		case "root":
			cfg.RootFsType = value
		case "init":
			cfg.InitTaskName = value
		}
	}

	return cfg
}
