package dropbox

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Backend selects how the dropbox learns about new files.
type Backend string

// Backends.
const (
	// BackendAuto uses inotify where available and fsnotify elsewhere.
	BackendAuto Backend = "auto"
	// BackendInotify reacts to IN_CLOSE_WRITE and IN_MOVED_TO. Linux only.
	BackendInotify Backend = "inotify"
	// BackendFsnotify waits for a file's size and mtime to stop changing.
	BackendFsnotify Backend = "fsnotify"
)

// Subdirectories of the dropbox that receive processed files.
const (
	DoneDir   = "done"
	FailedDir = "failed"
)

const reportSuffix = ".report.json"

// Options configures a Dropbox.
type Options struct {
	// Dir is the directory watched for *.json payloads.
	Dir string
	// Exhibit is used for payloads that do not name one.
	Exhibit string
	// Backend defaults to BackendAuto.
	Backend Backend
	// SettleDelay is how long a file must stay unchanged before the
	// fsnotify backend hands it over.
	SettleDelay time.Duration
	// IgnorePatterns are matched against the base name.
	IgnorePatterns []string
	// Limiter, when set, paces ingestion per exhibit under the key "dropbox|<exhibit>".
	Limiter Limiter
}

func (o *Options) setDefaults() {
	if o.Backend == "" {
		o.Backend = BackendAuto
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 200 * time.Millisecond
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{"*.tmp", "*.part", "*~", "*" + reportSuffix}
	}
}

func (o *Options) validate() error {
	if o.Dir == "" {
		return fmt.Errorf("dropbox directory is required")
	}
	switch o.Backend {
	case BackendAuto, BackendInotify, BackendFsnotify:
		return nil
	default:
		return fmt.Errorf("unknown dropbox backend %q", o.Backend)
	}
}

// accepts reports whether the file at path is a payload the dropbox should read.
// Hidden files are skipped so writers can stage under a dot name and rename.
func (o *Options) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(base), ".json") {
		return false
	}
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return false
		}
	}
	return true
}
