package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/agentdefs/pkg/catalog"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
	"github.com/jingkaihe/agentdefs/pkg/providers"
)

// watchedFiles are the paths, relative to the source root, that trigger a resync
const watchedFiles = "**/*.{md,json}"

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	IgnoreDirs   []string
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		IgnoreDirs:   []string{".git", "node_modules"},
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch <source>",
	Short: "Resync a local-dir source whenever its files change",
	Long: `Watches the directory behind a local-dir source and resyncs it into the
local cache when markdown or JSON files are written, created, removed or renamed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		c, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		return runWatchMode(ctx, c, args[0], config)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("ignore", "i", defaults.IgnoreDirs, "Directories to ignore")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if ignoreDirs, err := cmd.Flags().GetStringSlice("ignore"); err == nil {
		config.IgnoreDirs = ignoreDirs
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

// watchRoot returns the directory a local-dir source reads from
func watchRoot(c *catalog.Catalog, label string) (string, error) {
	entry, ok := c.Entry(label)
	if !ok {
		return "", &catalog.UnknownSourceError{Label: label}
	}
	dir, ok := entry.Provider.(*providers.Dir)
	if !ok {
		return "", errors.Errorf("source %s has type %s, only local-dir sources can be watched", label, entry.Config.Type)
	}
	return dir.Root(), nil
}

func runWatchMode(ctx context.Context, c *catalog.Catalog, label string, config *WatchConfig) error {
	root, err := watchRoot(c, label)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := addWatchDirs(ctx, watcher, root, config.IgnoreDirs); err != nil {
		return errors.Wrap(err, "failed to watch directories")
	}

	resync := func() {
		report, err := c.Sync(ctx, label)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to sync %s", label))
			return
		}
		presenter.SyncReport(label, report)
	}

	// Start from a fresh cache so edits made while not watching are picked up
	resync()

	events := make(chan FileEvent)
	debounced := make(chan FileEvent)
	go debounceChanges(ctx, events, debounced, time.Duration(config.DebounceTime)*time.Millisecond)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !ignoredDir(event.Name, config.IgnoreDirs) {
						if err := addWatchDirs(ctx, watcher, event.Name, config.IgnoreDirs); err != nil {
							logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
						}
					}
				}
				if !isDefinitionChange(root, event, config.IgnoreDirs) {
					continue
				}
				select {
				case events <- FileEvent{Path: event.Name, Op: event.Op, Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.G(ctx).WithError(err).Error("error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", root))
	for {
		select {
		case event := <-debounced:
			logger.G(ctx).WithFields(map[string]any{
				"file":      event.Path,
				"operation": event.Op.String(),
				"timestamp": event.Time,
			}).Debug("definition change detected")
			presenter.Info(fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
			resync()
		case <-ctx.Done():
			return nil
		}
	}
}

func addWatchDirs(ctx context.Context, watcher *fsnotify.Watcher, root string, ignoreDirs []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(path, ignoreDirs) {
			logger.G(ctx).WithField("directory", path).Debug("skipping ignored directory")
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return watcher.Add(path)
	})
}

func ignoredDir(path string, ignoreDirs []string) bool {
	base := filepath.Base(path)
	for _, dir := range ignoreDirs {
		if base == dir {
			return true
		}
	}
	return false
}

// isDefinitionChange reports whether event touches a definition file under
// root outside any ignored directory
func isDefinitionChange(root string, event fsnotify.Event, ignoreDirs []string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, dir := range ignoreDirs {
		if matched, _ := doublestar.Match("**/"+dir+"/**", rel); matched {
			return false
		}
		if matched, _ := doublestar.Match(dir+"/**", rel); matched {
			return false
		}
	}
	matched, _ := doublestar.Match(watchedFiles, rel)
	return matched
}

// debounceChanges collapses bursts of events into one, emitting the latest
// event once no new event has arrived for delay
func debounceChanges(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	var timer *time.Timer
	var fire <-chan time.Time
	var latest FileEvent

	for {
		select {
		case event, ok := <-input:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			latest = event
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(delay)
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case output <- latest:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
