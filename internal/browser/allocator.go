// internal/browser/allocator.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

// chromeFlags computes the command-line flags layered over chromedp's defaults.
func chromeFlags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{
		"disable-dev-shm-usage":  true,
		"disable-extensions":     true,
		"disable-popup-blocking": true,
		"disable-infobars":       true,
		// chromedp's defaults launch headless; turn it off explicitly for headed runs.
		"headless": cfg.Headless,
	}

	if cfg.Headless {
		flags["hide-scrollbars"] = true
		flags["mute-audio"] = true
	} else {
		flags["start-maximized"] = true
	}
	if cfg.NoSandbox {
		flags["no-sandbox"] = true
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		flags["window-size"] = fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)
	}

	// Free-form args from the config file: "--flag" or "--key=value".
	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if key, value, ok := strings.Cut(arg, "="); ok {
			flags[key] = value
			continue
		}
		flags[arg] = true
	}
	return flags
}

// AllocatorOptions builds the exec allocator options for a browser config.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for name, value := range chromeFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}
