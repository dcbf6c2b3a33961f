package connect

import "github.com/sourcehub/connectkit/pkg/logging"

// Window is an already-opened external window the OAuth flow navigates.
// Opening happens before the redirect URL is known: browsers only allow
// popups opened synchronously from a user gesture, so the window must exist
// before the URL fetch resolves.
type Window interface {
	Navigate(url string) error
	ShowError(message string)
	Close() error
}

// WindowOpener opens external windows for OAuth redirects.
type WindowOpener interface {
	Open() (Window, error)
}

// LogWindow is a headless Window that logs the redirect URL instead of
// navigating. Used by CLIs and tests.
type LogWindow struct {
	URL     string
	Message string
}

func (w *LogWindow) Navigate(url string) error {
	w.URL = url
	logging.Info("oauth redirect ready", logging.String("url", url))
	return nil
}

func (w *LogWindow) ShowError(message string) {
	w.Message = message
	logging.Error("oauth window error", logging.String("message", message))
}

func (w *LogWindow) Close() error { return nil }

// LogWindowOpener opens LogWindows.
type LogWindowOpener struct {
	Last *LogWindow
}

func (o *LogWindowOpener) Open() (Window, error) {
	o.Last = &LogWindow{}
	return o.Last, nil
}
