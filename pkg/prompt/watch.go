package prompt

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the personas file whenever it is written or replaced, until
// ctx is done. Reload failures are logged and the previous set is kept. It
// returns immediately when no personas file is configured.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.personasFile == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating personas watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that save via rename are still seen.
	if err := watcher.Add(filepath.Dir(c.personasFile)); err != nil {
		return fmt.Errorf("watching personas dir: %w", err)
	}

	target := filepath.Clean(c.personasFile)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.Reload(); err != nil {
				c.logger.Warn("keeping previous personas", "path", c.personasFile, "error", err)
				continue
			}
			c.logger.Info("personas reloaded", "path", c.personasFile)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("personas watcher error: %w", err)
		}
	}
}
