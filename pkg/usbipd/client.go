// Package usbipd wraps the usbipd-win command-line tool: listing devices,
// sharing them with elevation, and attaching them into WSL.
package usbipd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiyflowers/wslusb/pkg/logger"
	"github.com/aiyflowers/wslusb/pkg/runner"
)

const (
	defaultBinary = "usbipd"
	defaultWinget = "winget"
	wingetPackage = "usbipd"
	// DefaultManualInstallURL is where users are sent when automatic
	// installation cannot be verified.
	DefaultManualInstallURL = "https://github.com/dorssel/usbipd-win"

	// usbipd-win reports an already-shared device with this phrase; a bind
	// failure containing it is tolerated and the sequence continues.
	alreadyBoundPhrase = "already bound"
)

// ClientConfig carries the externally configurable knobs. Zero values fall
// back to the defaults above.
type ClientConfig struct {
	Binary           string
	Winget           string
	ManualInstallURL string
	CommandTimeout   time.Duration
	ElevatedTimeout  time.Duration
	InstallTimeout   time.Duration
}

// Client issues usbipd commands through a CommandRunner. Every operation is
// a fresh external invocation; the client itself holds no device state.
type Client struct {
	runner          runner.CommandRunner
	binary          string
	winget          string
	manualURL       string
	commandTimeout  time.Duration
	elevatedTimeout time.Duration
	installTimeout  time.Duration
	log             zerolog.Logger
}

// New returns a Client over the given runner.
func New(r runner.CommandRunner, cfg ClientConfig) *Client {
	c := &Client{
		runner:          r,
		binary:          cfg.Binary,
		winget:          cfg.Winget,
		manualURL:       cfg.ManualInstallURL,
		commandTimeout:  cfg.CommandTimeout,
		elevatedTimeout: cfg.ElevatedTimeout,
		installTimeout:  cfg.InstallTimeout,
		log:             logger.WithComponent("usbipd"),
	}

	if c.binary == "" {
		c.binary = defaultBinary
	}

	if c.winget == "" {
		c.winget = defaultWinget
	}

	if c.manualURL == "" {
		c.manualURL = DefaultManualInstallURL
	}

	if c.commandTimeout <= 0 {
		c.commandTimeout = runner.DefaultTimeout
	}

	if c.elevatedTimeout <= 0 {
		c.elevatedTimeout = runner.ElevatedTimeout
	}

	if c.installTimeout <= 0 {
		c.installTimeout = runner.InstallTimeout
	}

	return c
}

// ManualInstallURL returns the fallback install page for usbipd-win.
func (c *Client) ManualInstallURL() string {
	return c.manualURL
}

// OpResult is the outcome of a single device operation, with the tool's
// combined stdout and stderr as the user-facing message.
type OpResult struct {
	Succeeded bool
	Message   string
}

func (c *Client) run(ctx context.Context, elevated bool, args ...string) runner.Result {
	// Elevated calls get a longer bound: the wait includes the user
	// responding to the UAC prompt.
	timeout := c.commandTimeout
	if elevated {
		timeout = c.elevatedTimeout
	}

	return c.runner.Run(ctx, c.binary, args, runner.Options{
		Elevated:     elevated,
		Timeout:      timeout,
		NotFoundHint: "install usbipd-win from " + c.manualURL,
	})
}

func opResult(res runner.Result) OpResult {
	return OpResult{
		Succeeded: res.Succeeded,
		Message:   strings.TrimSpace(res.Stdout + res.Stderr),
	}
}

// List runs `usbipd list` and parses the output. A run failure is an error;
// unparseable output is not.
func (c *Client) List(ctx context.Context) ([]Device, error) {
	res := c.run(ctx, false, "list")
	if !res.Succeeded {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = "usbipd list reported a failure"
		}

		return nil, fmt.Errorf("%w: %s", errListFailed, msg)
	}

	devices := ParseDevices(res.Stdout)
	c.log.Debug().Int("devices", len(devices)).Msg("listed devices")

	return devices, nil
}

// Bind shares a device with the host. Requires elevation.
func (c *Client) Bind(ctx context.Context, busID string) OpResult {
	return opResult(c.run(ctx, true, "bind", "--busid", busID))
}

// Attach connects an already-shared device into WSL.
func (c *Client) Attach(ctx context.Context, busID string) OpResult {
	return opResult(c.run(ctx, false, "attach", "--wsl", "--busid", busID))
}

// Detach disconnects a device from WSL without unsharing it.
func (c *Client) Detach(ctx context.Context, busID string) OpResult {
	return opResult(c.run(ctx, false, "detach", "--busid", busID))
}

// Outcome tags the result of the bind-and-attach sequence.
type Outcome int

const (
	// OutcomeFailed: bind failed and the device is in its original state.
	OutcomeFailed Outcome = iota
	// OutcomePartial: the device is bound but attaching to WSL failed.
	// There is no rollback; the bind stays in place.
	OutcomePartial
	// OutcomeSucceeded: bound and attached.
	OutcomeSucceeded
)

// BindAttachResult is the tagged outcome of BindAndAttach. The presentation
// layer decides how to render each variant.
type BindAttachResult struct {
	Outcome       Outcome
	BindMessage   string
	AttachMessage string
}

// BindAndAttach binds the device (elevated) and then attaches it to WSL.
// A bind failure whose message contains "already bound" (any case) is
// tolerated and the attach still runs. Device state may have changed on any
// outcome, so callers should re-list afterwards regardless.
func (c *Client) BindAndAttach(ctx context.Context, busID string) BindAttachResult {
	bind := c.Bind(ctx, busID)
	if !bind.Succeeded && !strings.Contains(strings.ToLower(bind.Message), alreadyBoundPhrase) {
		c.log.Warn().Str("bus_id", busID).Str("message", bind.Message).Msg("bind failed")

		return BindAttachResult{Outcome: OutcomeFailed, BindMessage: bind.Message}
	}

	attach := c.Attach(ctx, busID)
	if !attach.Succeeded {
		c.log.Warn().Str("bus_id", busID).Str("message", attach.Message).Msg("bound but attach failed")

		return BindAttachResult{
			Outcome:       OutcomePartial,
			BindMessage:   bind.Message,
			AttachMessage: attach.Message,
		}
	}

	return BindAttachResult{
		Outcome:       OutcomeSucceeded,
		BindMessage:   bind.Message,
		AttachMessage: attach.Message,
	}
}

// InstallStatus tags the result of Install.
type InstallStatus int

const (
	// InstallAlreadyPresent: verification passed before installing anything.
	InstallAlreadyPresent InstallStatus = iota
	// InstallSucceeded: winget ran and the post-install verification passed.
	InstallSucceeded
	// InstallManualRequired: verification still fails; the user should be
	// sent to ManualURL.
	InstallManualRequired
)

// InstallResult is the tagged outcome of Install.
type InstallResult struct {
	Status          InstallStatus
	InstallerOutput string
	ManualURL       string
}

// Verify reports whether usbipd is present and usable, by exit code of a
// plain `usbipd list`. The device count does not matter.
func (c *Client) Verify(ctx context.Context) bool {
	return c.run(ctx, false, "list").Succeeded
}

// Install verifies first and skips installation when usbipd already works.
// Otherwise it installs via winget and re-verifies; the installer's own exit
// code is not trusted, only the verification is.
func (c *Client) Install(ctx context.Context) InstallResult {
	if c.Verify(ctx) {
		return InstallResult{Status: InstallAlreadyPresent}
	}

	res := c.runner.Run(ctx, c.winget, []string{"install", wingetPackage}, runner.Options{
		Timeout:      c.installTimeout,
		NotFoundHint: "install usbipd-win from " + c.manualURL,
	})

	out := strings.TrimSpace(res.Stdout + res.Stderr)

	c.log.Info().Bool("winget_succeeded", res.Succeeded).Msg("winget install finished, verifying")

	if c.Verify(ctx) {
		return InstallResult{Status: InstallSucceeded, InstallerOutput: out}
	}

	return InstallResult{
		Status:          InstallManualRequired,
		InstallerOutput: out,
		ManualURL:       c.manualURL,
	}
}

// ValidateBusID rejects bus ids that do not look like a hierarchical
// bus/port path (e.g. 1-1 or 2-1.4), before anything is shelled out.
func ValidateBusID(busID string) error {
	if strings.TrimSpace(busID) == "" {
		return errEmptyBusID
	}

	if !busIDRE.MatchString(busID) {
		return fmt.Errorf("%w: %q", errBadBusID, busID)
	}

	return nil
}
