// Package browser hands click targets to the desktop's default URI handler.
package browser

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// ErrEmptyURI is returned when there is nothing to open.
var ErrEmptyURI = errors.New("empty uri")

// command returns the launcher for uri on goos.
func command(goos, uri string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{uri}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{uri}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", uri}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

// Open opens uri with the user's default handler without waiting for it.
func Open(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ErrEmptyURI
	}
	name, args, err := command(runtime.GOOS, uri)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("browser.Open: %s: %w", name, err)
	}
	return nil
}

// Printer writes the URI instead of opening it, for headless hosts.
type Printer struct {
	W io.Writer
}

func (p Printer) Open(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return ErrEmptyURI
	}
	_, err := fmt.Fprintln(p.W, uri)
	return err
}
