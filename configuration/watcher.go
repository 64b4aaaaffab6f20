package configuration

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration each time the file is written and calls onChange
// with the freshly parsed configuration. It returns when ctx is done.
func Watch(ctx context.Context, path string, current *Configuration, onChange func(*Configuration)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err = watcher.Add(path); err != nil {
		return err
	}

	logger := current.GetLogger().Sugar()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				data, e := os.ReadFile(path)
				if e != nil {
					logger.Errorf("Impossible to read the configuration file %s: %v", path, e)
					continue
				}

				var next Configuration
				next.SetLogger(current.GetLogger())
				if e = next.Parse(data); e != nil {
					logger.Errorf("Impossible to parse the configuration file %s: %v", path, e)
					continue
				}

				logger.Debugf("Configuration file %s reloaded", path)
				onChange(&next)
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("The configuration watcher returned an error: %v", e)
		}
	}
}
