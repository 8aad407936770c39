package guild

import (
	"fmt"
	"strings"
)

// Position is a member's rank. Values are the wire bytes.
type Position uint8

const (
	PositionNormalMember Position = 0x00
	PositionBattleMaster Position = 0x20
	PositionGuildMaster  Position = 0x80
	PositionUndefined    Position = 0xFF
)

var positionNames = map[Position]string{
	PositionNormalMember: "normal_member",
	PositionBattleMaster: "battle_master",
	PositionGuildMaster:  "guild_master",
	PositionUndefined:    "undefined",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("position(0x%02X)", uint8(p))
}

func ParsePosition(s string) (Position, error) {
	return parseName(positionNames, "position", s)
}

// JoinResult answers a guild join request.
type JoinResult int

const (
	JoinRefused JoinResult = iota
	JoinAccepted
	JoinGuildFull
	JoinRequesterDisconnected
	JoinNotGuildMaster
	JoinAlreadyInGuild
	JoinMasterBusy
	JoinLevelTooLow
	joinResultCount
)

var joinResultWire = map[JoinResult]byte{
	JoinRefused:               0x00,
	JoinAccepted:              0x01,
	JoinGuildFull:             0x02,
	JoinRequesterDisconnected: 0x03,
	JoinNotGuildMaster:        0x04,
	JoinAlreadyInGuild:        0x05,
	JoinMasterBusy:            0x06,
	JoinLevelTooLow:           0x07,
}

var joinResultNames = map[JoinResult]string{
	JoinRefused:               "refused",
	JoinAccepted:              "accepted",
	JoinGuildFull:             "guild_full",
	JoinRequesterDisconnected: "requester_disconnected",
	JoinNotGuildMaster:        "not_guild_master",
	JoinAlreadyInGuild:        "already_in_guild",
	JoinMasterBusy:            "master_busy",
	JoinLevelTooLow:           "level_too_low",
}

func (r JoinResult) String() string { return nameOf(joinResultNames, r) }

func ParseJoinResult(s string) (JoinResult, error) {
	return parseName(joinResultNames, "join result", s)
}

// CreateError details why guild creation failed. CreateOK means it did not.
type CreateError int

const (
	CreateOK CreateError = iota
	CreateNameTaken
	CreateNameInvalid
	CreateAlreadyInGuild
	CreateLevelTooLow
	createErrorCount
)

var createErrorWire = map[CreateError]byte{
	CreateOK:             0x00,
	CreateNameTaken:      0x01,
	CreateNameInvalid:    0x02,
	CreateAlreadyInGuild: 0x03,
	CreateLevelTooLow:    0x04,
}

var createErrorNames = map[CreateError]string{
	CreateOK:             "ok",
	CreateNameTaken:      "name_taken",
	CreateNameInvalid:    "name_invalid",
	CreateAlreadyInGuild: "already_in_guild",
	CreateLevelTooLow:    "level_too_low",
}

func (e CreateError) String() string { return nameOf(createErrorNames, e) }

func ParseCreateError(s string) (CreateError, error) {
	return parseName(createErrorNames, "create error", s)
}

// KickResult is the outcome of a kick or disband request.
type KickResult int

const (
	KickFailed KickResult = iota
	KickSucceeded
	KickWrongPassword
	KickNotGuildMaster
	KickGuildDisbanded
	kickResultCount
)

var kickResultWire = map[KickResult]byte{
	KickFailed:         0x00,
	KickSucceeded:      0x01,
	KickWrongPassword:  0x02,
	KickNotGuildMaster: 0x03,
	KickGuildDisbanded: 0x04,
}

var kickResultNames = map[KickResult]string{
	KickFailed:         "failed",
	KickSucceeded:      "succeeded",
	KickWrongPassword:  "wrong_password",
	KickNotGuildMaster: "not_guild_master",
	KickGuildDisbanded: "guild_disbanded",
}

func (k KickResult) String() string { return nameOf(kickResultNames, k) }

func ParseKickResult(s string) (KickResult, error) {
	return parseName(kickResultNames, "kick result", s)
}

func wireByte[K ~int](table map[K]byte, k K) (byte, error) {
	b, ok := table[k]
	if !ok {
		return 0, fmt.Errorf("%w: %T(%d)", ErrUnknownValue, k, int(k))
	}
	return b, nil
}

func nameOf[K ~int](names map[K]string, k K) string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("%T(%d)", k, int(k))
}

func parseName[K comparable](names map[K]string, kind, s string) (K, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range names {
		if name == s {
			return k, nil
		}
	}
	var zero K
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, kind, s)
}

// Member is a guild member as seen by the receiving client.
type Member struct {
	ID       uint16
	Name     string
	GuildID  uint32
	Position Position
}

// ListEntry is one row of the guild member list window.
type ListEntry struct {
	Name     string
	ServerID uint8
	Position Position
}

// ListSummary carries the guild-level fields of the member list.
type ListSummary struct {
	TotalScore uint32
	Score      uint8
	RivalGuild string
}
