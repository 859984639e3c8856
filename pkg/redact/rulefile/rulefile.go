// Package rulefile loads redaction rule sets from YAML documents and keeps
// them fresh. Rules are edited administratively, outside the export
// pipeline; the source watches the rules directory and swaps in a new
// immutable snapshot when files change. An in-flight generation run keeps
// the snapshot it started with, so a mid-run edit can never split one
// export across two rule sets.
package rulefile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"clearcourse-hq/exhibit/pkg/redact"
)

// Document is the YAML shape of one rule-set file.
type Document struct {
	// Rules are the redaction rules declared by the file.
	Rules []redact.Rule `yaml:"rules"`
}

// Source loads and serves redaction rule snapshots from a directory of
// YAML files. It is safe for concurrent use.
type Source struct {
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot []redact.Rule

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSource creates a source over a rules directory and performs the
// initial load. Every *.yaml / *.yml file in the directory is parsed;
// rules from all files are merged and sorted by name for a stable
// snapshot identity.
func NewSource(dir string) (*Source, error) {
	s := &Source{
		dir:    dir,
		logger: slog.Default().With("component", "redact.rulefile"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current rule snapshot. The returned slice is a
// copy; callers may hold it for the duration of a run.
func (s *Source) Snapshot() []redact.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]redact.Rule, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Watch begins watching the rules directory and reloading on change.
// Events are debounced so editor write bursts trigger one reload. Watch
// returns immediately; call Close to stop.
func (s *Source) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	s.watcher = watcher

	go s.watchLoop()

	s.logger.Info("watching redaction rules", "dir", s.dir)
	return nil
}

// watchLoop drains watcher events, debouncing reloads.
func (s *Source) watchLoop() {
	defer close(s.doneCh)

	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-s.stopCh:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isRuleFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerCh = timer.C

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("rule watcher error", "error", err)

		case <-timerCh:
			timerCh = nil
			if err := s.reload(); err != nil {
				// A broken edit keeps the previous snapshot in service.
				s.logger.Error("rule reload failed, keeping previous snapshot", "error", err)
				continue
			}
			s.logger.Info("redaction rules reloaded", "count", len(s.Snapshot()))
		}
	}
}

// Close stops the watcher, if started.
func (s *Source) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.stopCh)
	err := s.watcher.Close()
	<-s.doneCh
	return err
}

// reload parses every rule file and atomically swaps the snapshot.
func (s *Source) reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read rules directory %s: %w", s.dir, err)
	}

	var rules []redact.Rule
	for _, entry := range entries {
		if entry.IsDir() || !isRuleFile(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read rule file %s: %w", path, err)
		}

		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse rule file %s: %w", path, err)
		}

		for _, r := range doc.Rules {
			if err := validateRule(r); err != nil {
				return fmt.Errorf("invalid rule in %s: %w", path, err)
			}
		}
		rules = append(rules, doc.Rules...)
	}

	// Stable snapshot identity regardless of file iteration order
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })

	s.mu.Lock()
	s.snapshot = rules
	s.mu.Unlock()
	return nil
}

// validateRule checks the declarative fields of a rule. Pattern validity is
// deliberately not checked here: a malformed pattern must fail the run that
// uses it, not just log at load time.
func validateRule(r redact.Rule) error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	switch r.Type {
	case redact.RuleRegex, redact.RuleKeyword, redact.RuleEntityType:
	default:
		return fmt.Errorf("rule %s: unknown type %q", r.Name, r.Type)
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule %s: pattern is required", r.Name)
	}
	if len(r.AppliesTo) == 0 {
		return fmt.Errorf("rule %s: applies_to is required", r.Name)
	}
	return nil
}

// isRuleFile reports whether the path looks like a YAML rule file.
func isRuleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
