// Package loader reads tracklane State documents from disk or over HTTP.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/tracklane/pkg/metrics"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// DirEnvVar overrides the project directory searched by FindStatePath.
const DirEnvVar = "TRACKLANE_DIR"

// PreferredStateNames defines the lookup priority for state files in a
// project directory.
var PreferredStateNames = []string{"tracklane.json", "timeline.json", "state.json"}

// MaxDocumentSize caps how much of a document Load reads (64MB).
const MaxDocumentSize = 64 << 20

var (
	// ErrNoStateFile is returned when a directory holds no usable state file.
	ErrNoStateFile = errors.New("no state file found")
	// ErrTooLarge is returned for documents above MaxDocumentSize.
	ErrTooLarge = errors.New("state document too large")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Code)
}

// Client is the HTTP client used for remote documents.
var Client = &http.Client{Timeout: 30 * time.Second}

// IsRemote reports whether src names an http(s) URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads a State from a file path, a project directory or an http(s)
// URL. Directories are resolved with FindStatePath.
func Load(ctx context.Context, src string) (model.State, error) {
	defer metrics.Timer(metrics.StateLoad)()

	if IsRemote(src) {
		return loadURL(ctx, src)
	}
	info, err := os.Stat(src)
	if err != nil {
		return model.State{}, fmt.Errorf("loading %s: %w", src, err)
	}
	if info.IsDir() {
		src, err = FindStatePath(src)
		if err != nil {
			return model.State{}, err
		}
	}
	return LoadFile(src)
}

// LoadFile reads a State from a JSON file.
func LoadFile(path string) (model.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.State{}, fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return model.State{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func loadURL(ctx context.Context, src string) (model.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return model.State{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := Client.Do(req)
	if err != nil {
		return model.State{}, fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.State{}, &StatusError{URL: src, Code: resp.StatusCode}
	}
	s, err := Parse(resp.Body)
	if err != nil {
		return model.State{}, fmt.Errorf("%s: %w", src, err)
	}
	return s, nil
}

// Parse decodes a State document from r. A leading UTF-8 BOM is ignored.
func Parse(r io.Reader) (model.State, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return model.State{}, fmt.Errorf("reading state: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return model.State{}, ErrTooLarge
	}
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return model.State{}, fmt.Errorf("empty state document: %w", io.ErrUnexpectedEOF)
	}

	defer metrics.Timer(metrics.JSONParsing)()
	return model.ParseState(data)
}

// ProjectDir returns the directory to search for documents: dir when
// given, else TRACKLANE_DIR, else the working directory.
func ProjectDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := os.Getenv(DirEnvVar); env != "" {
		return env, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return wd, nil
}

// FindStatePath locates the state file in dir. Preferred names win over
// other .json files; empty files, backups and editor temp files are
// skipped.
func FindStatePath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasPrefix(name, ".") ||
			strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") {
			continue
		}
		if info, err := e.Info(); err != nil || info.Size() == 0 {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoStateFile, dir)
	}

	for _, preferred := range PreferredStateNames {
		for _, name := range candidates {
			if name == preferred {
				return filepath.Join(dir, name), nil
			}
		}
	}
	return filepath.Join(dir, candidates[0]), nil
}

func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
