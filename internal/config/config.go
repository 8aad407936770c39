package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Event ops understood by a script.
const (
	OpPlayerLeft     = "player_left"
	OpJoinResponse   = "join_response"
	OpCreateResult   = "create_result"
	OpGuildInfo      = "guild_info"
	OpAssign         = "assign"
	OpKickResult     = "kick_result"
	OpList           = "list"
	OpJoinRequest    = "join_request"
	OpCreationDialog = "creation_dialog"
)

var ErrInvalidScript = errors.New("config: invalid script")

// Script is a replayable sequence of guild events.
type Script struct {
	Name   string  `toml:"name"`
	Events []Event `toml:"event"`
}

// Event is one notifier call. Which fields are read depends on Op.
type Event struct {
	Op         string        `toml:"op"`
	Member     *MemberEntry  `toml:"member"`
	Members    []MemberEntry `toml:"members"`
	AppearsNew bool          `toml:"appears_new"`
	Result     string        `toml:"result"`
	Raw        string        `toml:"raw"`
	Entries    []ListEntry   `toml:"entries"`
	TotalScore uint32        `toml:"total_score"`
	Score      uint8         `toml:"score"`
	Rival      string        `toml:"rival"`
}

type MemberEntry struct {
	ID       uint16 `toml:"id"`
	Name     string `toml:"name"`
	GuildID  uint32 `toml:"guild_id"`
	Position string `toml:"position"`
}

type ListEntry struct {
	Name     string `toml:"name"`
	Server   uint8  `toml:"server"`
	Position string `toml:"position"`
}

func LoadScript(path string) (Script, error) {
	var s Script
	if err := loadToml(path, &s); err != nil {
		return Script{}, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), ".toml")
	}
	if err := ValidateScript(s); err != nil {
		return Script{}, err
	}
	return s, nil
}

func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := toml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("script parse failed: %w", err)
	}
	if err := ValidateScript(s); err != nil {
		return Script{}, err
	}
	return s, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateScript(s Script) error {
	if len(s.Events) == 0 {
		return fmt.Errorf("%w: no events", ErrInvalidScript)
	}
	for i, e := range s.Events {
		if err := ValidateEvent(e); err != nil {
			return fmt.Errorf("event[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateEvent(e Event) error {
	switch strings.TrimSpace(e.Op) {
	case OpPlayerLeft, OpJoinRequest:
		if e.Member == nil {
			return fmt.Errorf("%w: %s requires member", ErrInvalidScript, e.Op)
		}
	case OpJoinResponse, OpCreateResult, OpKickResult:
		if strings.TrimSpace(e.Result) == "" {
			return fmt.Errorf("%w: %s requires result", ErrInvalidScript, e.Op)
		}
	case OpGuildInfo:
		if strings.TrimSpace(e.Raw) == "" {
			return fmt.Errorf("%w: guild_info requires raw", ErrInvalidScript)
		}
	case OpAssign, OpList, OpCreationDialog:
	case "":
		return fmt.Errorf("%w: op is required", ErrInvalidScript)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidScript, e.Op)
	}
	return nil
}
