package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"meetcal/internal/config"
	"meetcal/internal/ical"
	"meetcal/internal/index"
	appLog "meetcal/internal/log"
	"meetcal/internal/meeting"
)

// flagConfig holds CLI flag values; non-zero values override the config file.
type flagConfig struct {
	configPath    string
	yamlDir       string
	icalDir       string
	outputFile    string
	calName       string
	calDesc       string
	indexTemplate string
	indexOutput   string
	force         bool
	watch         bool
}

func main() {
	appLog.Info("meetcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf := config.DefaultConfig()
	if flags.configPath != "" {
		var err error
		conf, err = config.Load(flags.configPath)
		if err != nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
	}
	applyFlags(conf, flags)

	if err := validate(conf); err != nil {
		appLog.Error("invalid configuration", err)
		flag.Usage()
		os.Exit(1)
	}

	appLog.Info("effective config",
		"yaml_dir", conf.YAMLDir,
		"ical_dir", conf.ICalDir,
		"output_file", conf.OutputFile,
		"index_template", conf.IndexTemplate,
		"force", conf.Force,
		"watch", flags.watch,
		"refresh", conf.RefreshCron,
	)

	if err := run(conf); err != nil {
		appLog.Error("conversion failed", err)
		os.Exit(1)
	}

	if !flags.watch {
		appLog.Info("meetcal exiting")
		return
	}

	// Watch mode: regenerate on the configured cron schedule until
	// interrupted.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := run(conf); err != nil {
			appLog.Error("scheduled conversion failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("meetcal exiting")
}

// run executes one full convert pipeline: load, conflict gate, write,
// optional index.
func run(conf *config.Config) error {
	meetings, err := meeting.LoadPath(conf.YAMLDir, time.Now().UTC())
	if err != nil {
		return err
	}

	// The conflict check gates everything: nothing is written when any
	// two meetings double-book a channel.
	if err := meeting.CheckConflicts(meetings); err != nil {
		return err
	}

	if conf.ICalDir != "" {
		if err := prepareOutDir(conf.ICalDir, conf.Force); err != nil {
			return err
		}
		if err := ical.WriteMeetings(meetings, conf.ICalDir); err != nil {
			return err
		}
	} else {
		if err := prepareOutFile(conf.OutputFile, conf.Force); err != nil {
			return err
		}
		if err := ical.WriteCombined(meetings, conf.OutputFile, conf.CalName, conf.CalDescription); err != nil {
			return err
		}
	}

	if conf.IndexTemplate != "" && conf.IndexOutput != "" {
		if err := index.Render(meetings, conf.IndexTemplate, conf.IndexOutput, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// prepareOutDir refuses to write into a directory holding stale .ics
// files unless force removes them first.
func prepareOutDir(dir string, force bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var stale []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".ics" {
			stale = append(stale, filepath.Join(dir, e.Name()))
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if !force {
		return fmt.Errorf("output directory %s is not empty, re-run with -force to remove old files", dir)
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	appLog.Debug("removed stale output files", "dir", dir, "count", len(stale))
	return nil
}

func prepareOutFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("output file %s already exists, re-run with -force to overwrite", path)
		}
	}
	return nil
}

func applyFlags(conf *config.Config, flags flagConfig) {
	if flags.yamlDir != "" {
		conf.YAMLDir = flags.yamlDir
	}
	if flags.icalDir != "" {
		conf.ICalDir = flags.icalDir
	}
	if flags.outputFile != "" {
		conf.OutputFile = flags.outputFile
	}
	if flags.calName != "" {
		conf.CalName = flags.calName
	}
	if flags.calDesc != "" {
		conf.CalDescription = flags.calDesc
	}
	if flags.indexTemplate != "" {
		conf.IndexTemplate = flags.indexTemplate
	}
	if flags.indexOutput != "" {
		conf.IndexOutput = flags.indexOutput
	}
	if flags.force {
		conf.Force = true
	}
}

func validate(conf *config.Config) error {
	if conf.YAMLDir == "" {
		return errors.New("a meeting YAML directory is required (-yamldir)")
	}
	if (conf.ICalDir == "") == (conf.OutputFile == "") {
		return errors.New("exactly one of -icaldir and -output is required")
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to optional config file supplying defaults")
	flag.StringVar(&cfg.yamlDir, "yamldir", "", "Directory containing meeting YAML to process")
	flag.StringVar(&cfg.icalDir, "icaldir", "", "Output directory (one .ics file per meeting)")
	flag.StringVar(&cfg.outputFile, "output", "", "Output file (one .ics file for all meetings)")
	flag.StringVar(&cfg.calName, "calname", "", "Calendar name for the combined output")
	flag.StringVar(&cfg.calDesc, "caldesc", "", "Calendar description for the combined output")
	flag.StringVar(&cfg.indexTemplate, "index-template", "", "HTML template for the meeting index page")
	flag.StringVar(&cfg.indexOutput, "index-output", "", "Output path for the meeting index page")
	flag.BoolVar(&cfg.force, "force", false, "Forcefully remove/overwrite previous .ics output")
	flag.BoolVar(&cfg.watch, "watch", false, "Keep running and regenerate on the configured cron schedule")

	flag.Parse()

	return cfg
}
