package results

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reports artifacts created or rewritten in the results directory
// until ctx is done. The directory is created if it does not exist.
func (s *Store) Watch(ctx context.Context, onFile func(path string)) error {
	if err := s.EnsureDir(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.Dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", s.Dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if isArtifact(event.Name) {
				onFile(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func isArtifact(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, "transcript_") || strings.HasPrefix(name, "summary_")
}
