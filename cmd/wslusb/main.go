package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aiyflowers/wslusb/pkg/config"
	"github.com/aiyflowers/wslusb/pkg/logger"
	"github.com/aiyflowers/wslusb/pkg/runner"
	"github.com/aiyflowers/wslusb/pkg/tui"
	"github.com/aiyflowers/wslusb/pkg/usbipd"
)

const (
	exitFailure = 1
	// exitPartial signals bind succeeded but attach did not.
	exitPartial = 2
)

// SubcommandHandler runs one non-interactive subcommand.
type SubcommandHandler interface {
	Run(args []string, client *usbipd.Client) int
}

func main() {
	configFile := flag.String("config", "", "path to wslusb config file (JSON)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	if err := initLogger(*configFile, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	client := usbipd.New(runner.NewExecRunner(cfg.PowershellPath), cfg.ClientConfig())

	args := flag.Args()
	if len(args) == 0 {
		if err := tui.Run(client); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitFailure)
		}

		return
	}

	subcommands := map[string]SubcommandHandler{
		"list":    ListHandler{},
		"bind":    BindHandler{},
		"attach":  AttachHandler{},
		"detach":  DetachHandler{},
		"install": InstallHandler{},
	}

	handler, ok := subcommands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q (expected list, bind, attach, detach, or install)\n", args[0])
		os.Exit(exitFailure)
	}

	os.Exit(handler.Run(args[1:], client))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.LoadFile(path)
}

// initLogger configures logging from the config file when one was given,
// otherwise from the environment.
func initLogger(configFile string, cfg *config.Config) error {
	if configFile == "" {
		return logger.InitWithDefaults()
	}

	return logger.Init(&cfg.Logging)
}

// ListHandler prints the device table, optionally as JSON.
type ListHandler struct{}

// Run executes the list subcommand.
func (ListHandler) Run(args []string, client *usbipd.Client) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit devices as JSON")

	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	devices, err := client.List(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	if *asJSON {
		data, err := json.MarshalIndent(devices, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}

		fmt.Println(string(data))

		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BUSID\tVID:PID\tDEVICE\tSTATE")

	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.BusID, d.VIDPID, d.Name, d.StateText)
	}

	_ = w.Flush()

	return 0
}

func parseBusID(name string, args []string) (string, int) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	busID := fs.String("busid", "", "bus id of the device (e.g. 1-1)")

	if err := fs.Parse(args); err != nil {
		return "", exitFailure
	}

	if err := usbipd.ValidateBusID(*busID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return "", exitFailure
	}

	return *busID, 0
}

// BindHandler binds a device and attaches it to WSL.
type BindHandler struct{}

// Run executes the bind subcommand (bind + attach, matching the interactive
// flow).
func (BindHandler) Run(args []string, client *usbipd.Client) int {
	busID, code := parseBusID("bind", args)
	if code != 0 {
		return code
	}

	res := client.BindAndAttach(context.Background(), busID)

	switch res.Outcome {
	case usbipd.OutcomeSucceeded:
		fmt.Printf("device %s bound and attached to WSL\n", busID)
		return 0
	case usbipd.OutcomePartial:
		fmt.Fprintf(os.Stderr, "device %s is bound, but attaching to WSL failed: %s\n", busID, res.AttachMessage)
		return exitPartial
	default:
		fmt.Fprintf(os.Stderr, "failed to bind %s: %s\n", busID, res.BindMessage)
		return exitFailure
	}
}

// AttachHandler attaches an already-bound device to WSL.
type AttachHandler struct{}

// Run executes the attach subcommand.
func (AttachHandler) Run(args []string, client *usbipd.Client) int {
	busID, code := parseBusID("attach", args)
	if code != 0 {
		return code
	}

	res := client.Attach(context.Background(), busID)
	if !res.Succeeded {
		fmt.Fprintf(os.Stderr, "failed to attach %s: %s\n", busID, res.Message)
		return exitFailure
	}

	fmt.Printf("device %s attached to WSL\n", busID)

	return 0
}

// DetachHandler detaches a device from WSL.
type DetachHandler struct{}

// Run executes the detach subcommand.
func (DetachHandler) Run(args []string, client *usbipd.Client) int {
	busID, code := parseBusID("detach", args)
	if code != 0 {
		return code
	}

	res := client.Detach(context.Background(), busID)
	if !res.Succeeded {
		fmt.Fprintf(os.Stderr, "failed to detach %s: %s\n", busID, res.Message)
		return exitFailure
	}

	fmt.Printf("device %s detached from WSL\n", busID)

	return 0
}

// InstallHandler installs usbipd-win via winget if it is not already usable.
type InstallHandler struct{}

// Run executes the install subcommand.
func (InstallHandler) Run(_ []string, client *usbipd.Client) int {
	res := client.Install(context.Background())

	switch res.Status {
	case usbipd.InstallAlreadyPresent:
		fmt.Println("usbipd-win is already installed")
		return 0
	case usbipd.InstallSucceeded:
		fmt.Println("usbipd-win installed and verified")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "automatic install could not be verified; install manually from %s\n", res.ManualURL)
		if res.InstallerOutput != "" {
			fmt.Fprintln(os.Stderr, res.InstallerOutput)
		}

		return exitFailure
	}
}
