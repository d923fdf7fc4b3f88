// Package session owns the single open document: its path, its text and
// whether it has unsaved changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/petervdpas/glassnote/internal/notify"
	"github.com/petervdpas/glassnote/internal/util"
)

// ErrAborted is returned when the user declines to discard unsaved changes.
var ErrAborted = errors.New("session: unsaved changes, aborted")

// Untitled is the title of a document that has never been saved.
const Untitled = "New document"

// Picker asks the user for a file location. An empty path means cancelled.
type Picker interface {
	OpenPath() (string, error)
	SavePath(suggested string) (string, error)
}

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(title, message string) (bool, error)
}

// Terminator closes the host window.
type Terminator interface {
	Close()
}

// Drafts is the auto-save slot.
type Drafts interface {
	Touch(content string)
	Load(ctx context.Context) (string, bool, error)
}

// Document is a read-only view of the session.
type Document struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Modified bool   `json:"modified"`
	Title    string `json:"title"`
}

// Result reports a file operation back to the UI. Cancelled is set when the
// user dismissed a dialog; Error carries a readable I/O failure.
type Result struct {
	Success   bool   `json:"success"`
	Cancelled bool   `json:"cancelled"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ChangeKind string

const (
	ChangeNew      ChangeKind = "new"
	ChangeOpened   ChangeKind = "opened"
	ChangeSaved    ChangeKind = "saved"
	ChangeModified ChangeKind = "modified"
	ChangeRestored ChangeKind = "restored"
)

// Change is published after every state transition.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Path     string     `json:"path"`
	Modified bool       `json:"modified"`
	Title    string     `json:"title"`
}

type Options struct {
	Picker  Picker
	Confirm Confirmer
	Host    Terminator
	Drafts  Drafts // optional
	Log     *zap.Logger
}

type Manager struct {
	picker  Picker
	confirm Confirmer
	host    Terminator
	drafts  Drafts
	log     *zap.Logger

	mu       sync.Mutex
	path     string
	content  string
	modified bool

	// edits counts content replacements; a save only marks the session clean
	// if none happened while the file was being written.
	edits   uint64
	lastSeq uint64

	changes notify.Bus[Change]
}

func NewManager(opt Options) *Manager {
	if opt.Log == nil {
		opt.Log = zap.NewNop()
	}
	return &Manager{
		picker:  opt.Picker,
		confirm: opt.Confirm,
		host:    opt.Host,
		drafts:  opt.Drafts,
		log:     opt.Log,
	}
}

// Subscribe registers fn for change notifications.
func (m *Manager) Subscribe(fn func(Change)) (cancel func()) {
	return m.changes.Subscribe(fn)
}

func (m *Manager) Snapshot() Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Document{
		Path:     m.path,
		Content:  m.content,
		Modified: m.modified,
		Title:    titleFor(m.path),
	}
}

func (m *Manager) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

func (m *Manager) Modified() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modified
}

// NewDocument clears the session, asking first if there are unsaved changes.
func (m *Manager) NewDocument() error {
	if !m.confirmDiscard("New document", "Unsaved changes. Continue?") {
		return ErrAborted
	}

	m.mu.Lock()
	m.content = ""
	m.path = ""
	m.modified = false
	m.edits++
	m.mu.Unlock()

	m.log.Info("new document")
	m.publish(ChangeNew)
	return nil
}

// OpenDocument replaces the session with content loaded from path.
func (m *Manager) OpenDocument(content, path string) {
	m.mu.Lock()
	m.content = content
	m.path = path
	m.modified = false
	m.edits++
	m.mu.Unlock()

	m.log.Info("document opened", zap.String("path", path), zap.Int("bytes", len(content)))
	m.publish(ChangeOpened)
}

// Open asks the picker for a file, reads it as UTF-8 text and opens it.
func (m *Manager) Open() Result {
	path, err := m.picker.OpenPath()
	if err != nil {
		m.log.Warn("open dialog failed", zap.Error(err))
		return Result{Error: err.Error()}
	}
	if path == "" {
		return Result{Cancelled: true}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		m.log.Warn("read failed", zap.String("path", path), zap.Error(err))
		return Result{Path: path, Error: err.Error()}
	}
	if !utf8.Valid(b) {
		m.log.Warn("file is not UTF-8 text", zap.String("path", path))
		return Result{Path: path, Error: fmt.Sprintf("%s is not valid UTF-8 text", filepath.Base(path))}
	}

	m.OpenDocument(string(b), path)
	return Result{Success: true, Path: path}
}

// SaveDocument writes content to the current path, or falls back to
// SaveAsDocument when the document has never been saved.
func (m *Manager) SaveDocument(content string) Result {
	path := m.Path()
	if path == "" {
		return m.SaveAsDocument(content)
	}
	return m.write(path, content)
}

// SaveAsDocument asks for a destination and writes content there.
func (m *Manager) SaveAsDocument(content string) Result {
	suggested := m.Path()
	if suggested != "" {
		suggested = filepath.Base(suggested)
	}

	path, err := m.picker.SavePath(suggested)
	if err != nil {
		m.log.Warn("save dialog failed", zap.Error(err))
		return Result{Error: err.Error()}
	}
	if path == "" {
		return Result{Cancelled: true}
	}
	return m.write(path, content)
}

// write stores content at path. The session is marked clean only when it
// still holds what was written: unsaved text that differs from content, or an
// edit made during the write, keeps the modified flag and the newer text.
func (m *Manager) write(path, content string) Result {
	m.mu.Lock()
	gen := m.edits
	diverged := m.modified && m.content != content
	m.mu.Unlock()

	if err := util.WriteFileAtomic(path, []byte(content)); err != nil {
		m.log.Warn("save failed", zap.String("path", path), zap.Error(err))
		return Result{Path: path, Error: err.Error()}
	}

	m.mu.Lock()
	m.path = path
	clean := !diverged && m.edits == gen
	if clean {
		m.content = content
		m.modified = false
	}
	m.mu.Unlock()

	if !clean {
		m.log.Info("document changed while saving, still modified", zap.String("path", path))
	}
	m.log.Info("document saved", zap.String("path", path), zap.Int("bytes", len(content)))
	m.publish(ChangeSaved)
	return Result{Success: true, Path: path}
}

// MarkModified sets the modified flag.
func (m *Manager) MarkModified(modified bool) {
	m.mu.Lock()
	m.modified = modified
	m.mu.Unlock()
	m.publish(ChangeModified)
}

// Edit takes the UI's current text as the new content and schedules a draft
// write.
func (m *Manager) Edit(content string) {
	m.edit(0, content)
}

// EditSeq is Edit for callers that may deliver edits out of order. seq must
// grow with every edit; an edit older than the last one applied is dropped
// and false is returned.
func (m *Manager) EditSeq(seq uint64, content string) bool {
	return m.edit(seq, content)
}

func (m *Manager) edit(seq uint64, content string) bool {
	m.mu.Lock()
	if seq != 0 {
		if seq <= m.lastSeq {
			m.mu.Unlock()
			m.log.Debug("stale edit dropped", zap.Uint64("seq", seq))
			return false
		}
		m.lastSeq = seq
	}
	m.content = content
	m.edits++
	wasModified := m.modified
	m.modified = true
	// under mu so the draft slot sees edits in the order they were applied
	if m.drafts != nil {
		m.drafts.Touch(content)
	}
	m.mu.Unlock()

	if !wasModified {
		m.publish(ChangeModified)
	}
	return true
}

// ConfirmClose asks whether unsaved changes may be discarded, without
// closing anything. It is used when the window manager closes the window.
func (m *Manager) ConfirmClose() error {
	if !m.confirmDiscard("Close", "Unsaved changes. Close anyway?") {
		return ErrAborted
	}
	return nil
}

// Close asks the host to close the window, confirming first if there are
// unsaved changes.
func (m *Manager) Close() error {
	if err := m.ConfirmClose(); err != nil {
		return err
	}
	m.log.Info("closing window")
	if m.host != nil {
		m.host.Close()
	}
	return nil
}

// RecoverDraft offers the auto-saved draft, if there is a non-blank one.
// It returns true when the draft was loaded into the session.
func (m *Manager) RecoverDraft(ctx context.Context) (bool, error) {
	if m.drafts == nil {
		return false, nil
	}

	draft, ok, err := m.drafts.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load draft: %w", err)
	}
	if !ok || strings.TrimSpace(draft) == "" {
		return false, nil
	}

	yes, err := m.confirm.Confirm("Recover draft", "Auto-saved draft found. Load it?")
	if err != nil {
		return false, fmt.Errorf("confirm draft: %w", err)
	}
	if !yes {
		return false, nil
	}

	m.mu.Lock()
	m.content = draft
	m.modified = true
	m.edits++
	m.mu.Unlock()

	m.log.Info("draft restored", zap.Int("bytes", len(draft)))
	m.publish(ChangeRestored)
	return true, nil
}

// confirmDiscard returns true when there is nothing to lose or the user
// agreed to lose it. A failing dialog counts as a refusal.
func (m *Manager) confirmDiscard(title, message string) bool {
	if !m.Modified() {
		return true
	}
	yes, err := m.confirm.Confirm(title, message)
	if err != nil {
		m.log.Warn("confirm dialog failed", zap.Error(err))
		return false
	}
	return yes
}

func (m *Manager) publish(kind ChangeKind) {
	m.mu.Lock()
	c := Change{
		Kind:     kind,
		Path:     m.path,
		Modified: m.modified,
		Title:    titleFor(m.path),
	}
	m.mu.Unlock()
	m.changes.Publish(c)
}

func titleFor(path string) string {
	if path == "" {
		return Untitled
	}
	return path
}
