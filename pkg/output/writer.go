// Package output persists scrape results as timestamped JSON files and
// reads them back for listing and display.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	gserr "github.com/matzehuels/gitscrape/pkg/errors"
	"github.com/matzehuels/gitscrape/pkg/scrape"
)

const filenameTimeLayout = "20060102_150405"

// Writer saves scrape results under a single output directory.
type Writer struct {
	dir    string
	logger *log.Logger

	now func() time.Time
}

// NewWriter creates a Writer rooted at dir. The directory is created lazily
// on first save.
func NewWriter(dir string, logger *log.Logger) (*Writer, error) {
	if err := gserr.ValidateOutputDir(dir); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the output directory path.
func (w *Writer) Dir() string {
	return w.dir
}

// Save writes result as indented JSON to {username}_profile_{timestamp}.json
// and returns the path written.
func (w *Writer) Save(result *scrape.Result, username string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", gserr.Wrap(gserr.ErrCodeSaveFailed, err, "create output directory %s", w.dir)
	}

	filename := fmt.Sprintf("%s_profile_%s.json", username, w.now().Format(filenameTimeLayout))
	path := filepath.Join(w.dir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", gserr.Wrap(gserr.ErrCodeSaveFailed, err, "encode result for %s", username)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", gserr.Wrap(gserr.ErrCodeSaveFailed, err, "write %s", path)
	}

	w.logger.Info("saved scrape result", "path", path, "bytes", len(data))
	return path, nil
}

// Load reads a previously saved result back from path.
func (w *Writer) Load(path string) (*scrape.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gserr.Wrap(gserr.ErrCodeFileNotFound, err, "load %s", path)
		}
		return nil, gserr.Wrap(gserr.ErrCodeInternal, err, "load %s", path)
	}

	var result scrape.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, gserr.Wrap(gserr.ErrCodeInternal, err, "decode %s", path)
	}
	return &result, nil
}

// List returns the filenames of saved results, most recent first.
// A missing output directory yields an empty list.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, gserr.Wrap(gserr.ErrCodeInternal, err, "list %s", w.dir)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, "_profile_") && strings.HasSuffix(name, ".json") {
			files = append(files, name)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		si, sj := stampOf(files[i]), stampOf(files[j])
		if si != sj {
			return si > sj
		}
		return files[i] > files[j]
	})
	return files, nil
}

// stampOf extracts the embedded save timestamp from a result filename.
// The fixed-width digit layout makes string comparison time comparison.
func stampOf(name string) string {
	idx := strings.LastIndex(name, "_profile_")
	if idx < 0 {
		return ""
	}
	return strings.TrimSuffix(name[idx+len("_profile_"):], ".json")
}
