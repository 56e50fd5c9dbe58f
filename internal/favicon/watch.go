// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package favicon

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchReadyHook func() // used in tests, called when Watch started watching the input

// Watch converts input to output and then converts it again every time input
// changes, until ctx is canceled. The result of every conversion is passed to
// report. Watch waits for a running conversion before returning, and report
// is never called after that.
func Watch(ctx context.Context, c *Config, input, output string, report func(error)) error {
	if c == nil {
		c = new(Config)
	}
	c.setDefaults()
	if report == nil {
		report = func(error) {}
	}

	var (
		mu      sync.Mutex
		stopped bool
	)
	convert := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		report(Convert(c, input, output))
	}
	convert()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors often replace files instead of writing them in place, so watch
	// the parent directory.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return err
	}

	// Saving a file can produce several events in a row.
	debouncer := newDebouncer(250*time.Millisecond, convert)
	// A timer may have fired already, so wait for a running conversion and
	// keep late ones from reporting after Watch returns.
	defer func() {
		debouncer.Stop()
		mu.Lock()
		stopped = true
		mu.Unlock()
	}()

	name := filepath.Clean(input)
	c.Logf("started watching %s for changes", name)

	if watchReadyHook != nil {
		watchReadyHook()
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name || !shouldConvert(event.Op) {
				continue
			}
			c.Logf("detected change in %s (%v), scheduling conversion", event.Name, event.Op)
			debouncer.Do()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logf("watch error: %v", err)
		case <-ctx.Done():
			c.Logf("stopped watching %s", name)
			return nil
		}
	}
}

// shouldConvert reports whether an event on the input file warrants a new
// conversion.
//
// Removal and rename are ignored: an atomic save is followed by a create
// event on the same name, and a removed file can't be converted anyway.
// Chmod doesn't change the image.
func shouldConvert(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write) != 0
}

// debouncer delays execution of a function until a specified duration has
// passed without any new events.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	f  func()
	t  *time.Timer
}

func newDebouncer(d time.Duration, f func()) *debouncer {
	return &debouncer{
		d: d,
		f: f,
	}
}

// Do schedules a function to be executed.
func (d *debouncer) Do() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}

	d.t = time.AfterFunc(d.d, d.f)
}

// Stop cancels a pending execution, if any.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}
}
