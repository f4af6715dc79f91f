//go:build !linux

package dropbox

import "log/slog"

func newInotifyBackend(Options, *slog.Logger) (backend, error) {
	return nil, errInotifyUnsupported
}
