package model

import (
	"fmt"
	"strings"
)

// Provider selects which text-generation backend serves a request.
type Provider string

const (
	ProviderCloud Provider = "cloud"
	ProviderLocal Provider = "local"
)

// ParseProvider accepts "cloud" | "local" (case-insensitive). Empty means cloud.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderCloud:
		return ProviderCloud, nil
	case ProviderLocal:
		return ProviderLocal, nil
	}
	return "", fmt.Errorf("unknown llm_provider %q", s)
}

// Mode is the caller's tier preference.
type Mode string

const (
	ModeFlash Mode = "flash"
	ModePro   Mode = "pro"
)

// ParseMode accepts "flash" | "pro"; empty yields def.
func ParseMode(s string, def Mode) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case ModeFlash:
		return ModeFlash, nil
	case ModePro:
		return ModePro, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Tier is a quality/cost level of the generation capability.
type Tier int

const (
	TierFast Tier = iota
	TierCapable
)

func (t Tier) String() string {
	if t == TierCapable {
		return "capable"
	}
	return "fast"
}

// Tier maps the mode to the tier the caller asked for.
func (m Mode) Tier() Tier {
	if m == ModePro {
		return TierCapable
	}
	return TierFast
}

// Preference is the provider/mode pair carried by jobs and chat sessions.
type Preference struct {
	Provider Provider `json:"llm_provider"`
	Mode     Mode     `json:"mode"`
}
