package dom

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// FilePage is a Page read from disk that can be re-read when the file changes.
type FilePage struct {
	*Page
	Path string

	mu      sync.Mutex
	modTime time.Time
}

func OpenFile(path, rawURL string) (*FilePage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	p, err := LoadFile(path, rawURL)
	if err != nil {
		return nil, err
	}
	return &FilePage{Page: p, Path: path, modTime: info.ModTime()}, nil
}

// Reload re-reads the file when it changed since the last read. It reports
// whether the document was replaced.
func (f *FilePage) Reload() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(f.modTime) {
		return false, nil
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return false, err
	}

	f.Replace(doc)
	f.modTime = info.ModTime()
	log.Debug().Str("file", f.Path).Msg("Page reloaded")
	return true, nil
}

// Watch calls onChange after each write to the file until ctx is done.
func (f *FilePage) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors often replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(f.Path)); err != nil {
		return err
	}
	target := filepath.Clean(f.Path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("file", f.Path).Msg("File watcher error")
		}
	}
}
