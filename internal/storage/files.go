package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// SummaryHeader is the first line of every summary document.
const SummaryHeader = "# Crawl Summaries\n\n"

// Writer owns the output directory: one Markdown file per page and the
// shared summary document. Appends to the summary document go through a
// single handle guarded by a mutex.
type Writer struct {
	dir         string
	summaryPath string

	mu      sync.Mutex
	summary *os.File
}

func NewWriter(dir, summaryFile string) *Writer {
	return &Writer{
		dir:         dir,
		summaryPath: filepath.Join(dir, summaryFile),
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// SummaryPath returns the location of the summary document.
func (w *Writer) SummaryPath() string { return w.summaryPath }

// Init creates the output directory if it does not exist.
func (w *Writer) Init() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", w.dir)
	}
	return nil
}

// InitSummaryDocument truncates the summary document, writes the header and
// keeps the file open for appending.
func (w *Writer) InitSummaryDocument() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.summary != nil {
		w.summary.Close()
		w.summary = nil
	}

	if err := os.WriteFile(w.summaryPath, []byte(SummaryHeader), 0o644); err != nil {
		return errors.Wrap(err, "failed to initialize summary document")
	}

	f, err := os.OpenFile(w.summaryPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open summary document")
	}
	w.summary = f
	return nil
}

// FileName derives the on-disk name for the n-th page: the URL's host plus
// the counter, with path and port separators replaced.
func FileName(rawURL string, n int) string {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	name := fmt.Sprintf("%s_%d.md", host, n)
	return strings.NewReplacer("/", "_", ":", "_").Replace(name)
}

// Save writes content to the file for the n-th page, overwriting any
// previous file of the same name, and returns its path.
func (w *Writer) Save(rawURL, content string, n int) (string, error) {
	path := filepath.Join(w.dir, FileName(rawURL, n))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

// Read returns the exact on-disk content of a saved page.
func (w *Writer) Read(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read back %s", path)
	}
	return string(b), nil
}

// AppendSummary appends one block to the summary document and syncs it.
func (w *Writer) AppendSummary(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.summary == nil {
		return errors.New("summary document not initialized")
	}
	if _, err := w.summary.WriteString(text); err != nil {
		return errors.Wrap(err, "failed to append summary")
	}
	if err := w.summary.Sync(); err != nil {
		return errors.Wrap(err, "failed to flush summary document")
	}
	return nil
}

// Close releases the summary document handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.summary == nil {
		return nil
	}
	err := w.summary.Close()
	w.summary = nil
	return err
}
