// Package router routes an approved proposal to the right execution backend
// for the active mode: paper simulation, testnet, or live trading.
package router

import (
	"fmt"
	"os"
	"strings"
)

// Execution modes.
const (
	ModePaper   = "paper"
	ModeTestnet = "testnet"
	ModeLive    = "live"
)

const (
	modeEnv      = "MODE"
	allowLiveEnv = "ALLOW_LIVE"
)

// ResolveMode picks the execution mode: the MODE env var wins over the
// configured default, and live additionally requires ALLOW_LIVE=1. Anything
// unknown is an error, so a typo can never reach the live path.
func ResolveMode(configured string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(modeEnv)))
	if mode == "" {
		mode = strings.ToLower(strings.TrimSpace(configured))
	}
	if mode == "" {
		mode = ModePaper
	}

	switch mode {
	case ModePaper, ModeTestnet:
		return mode, nil
	case ModeLive:
		if os.Getenv(allowLiveEnv) != "1" {
			return "", fmt.Errorf("live mode requires %s=1", allowLiveEnv)
		}
		return ModeLive, nil
	}
	return "", fmt.Errorf("unknown mode %q", mode)
}
