package main

import (
	"flag"

	tea "github.com/charmbracelet/bubbletea"

	"nowcast/internal/config"
)

// Config file changed notification
type configReloadMsg struct{}

var configChangeChan = make(chan struct{}, 1)

// Watch for config file changes
func watchConfigCmd() tea.Cmd {
	return func() tea.Msg {
		<-configChangeChan
		return configReloadMsg{}
	}
}

// notifyConfigChange wakes watchConfigCmd. Bursts of reloads collapse into
// one message since the model re-reads the whole config anyway.
func notifyConfigChange(config.Config) {
	select {
	case configChangeChan <- struct{}{}:
	default:
	}
}

type cliFlags struct {
	configPath string
	url        string
	palette    string
	logLevel   string
	logFile    string
}

func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, error) {
	var f cliFlags
	fs.StringVar(&f.configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/nowcast/config.yaml)")
	fs.StringVar(&f.url, "url", "", "Hub websocket URL, e.g. ws://host:8765/")
	fs.StringVar(&f.palette, "palette", "", "Cover color strategy: quantize, average or vibrant")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "Log file (default: nowcast.log in the temp dir)")
	err := fs.Parse(args)
	return f, err
}

// overrides maps explicitly set flags onto config keys; they take precedence
// over the file and the environment.
func (f cliFlags) overrides() map[string]any {
	o := map[string]any{}
	if f.url != "" {
		o["client.url"] = f.url
	}
	if f.palette != "" {
		o["animation.palette"] = f.palette
	}
	if f.logLevel != "" {
		o["log.level"] = f.logLevel
	}
	if f.logFile != "" {
		o["log.file"] = f.logFile
	}
	return o
}

func loadConfig(f cliFlags) (*config.Loader, error) {
	return config.Load(f.configPath, f.overrides())
}
