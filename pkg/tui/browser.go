package tui

import (
	"os/exec"
	"runtime"
)

// openBrowser opens url with the platform's default handler. Fire and
// forget; the caller only logs failures.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
