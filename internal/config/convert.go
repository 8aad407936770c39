package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/guildwire/internal/guild"
)

func (m MemberEntry) Member() (guild.Member, error) {
	pos := guild.PositionNormalMember
	if strings.TrimSpace(m.Position) != "" {
		p, err := guild.ParsePosition(m.Position)
		if err != nil {
			return guild.Member{}, err
		}
		pos = p
	}
	return guild.Member{ID: m.ID, Name: m.Name, GuildID: m.GuildID, Position: pos}, nil
}

func Members(entries []MemberEntry) ([]guild.Member, error) {
	out := make([]guild.Member, 0, len(entries))
	for i, e := range entries {
		m, err := e.Member()
		if err != nil {
			return nil, fmt.Errorf("member[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func ListEntries(entries []ListEntry) ([]guild.ListEntry, error) {
	out := make([]guild.ListEntry, 0, len(entries))
	for i, e := range entries {
		pos := guild.PositionNormalMember
		if strings.TrimSpace(e.Position) != "" {
			p, err := guild.ParsePosition(e.Position)
			if err != nil {
				return nil, fmt.Errorf("entry[%d]: %w", i, err)
			}
			pos = p
		}
		out = append(out, guild.ListEntry{Name: e.Name, ServerID: e.Server, Position: pos})
	}
	return out, nil
}

// DecodeHex accepts hex with optional whitespace, as printed by the hex sink.
func DecodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: raw: %v", ErrInvalidScript, err)
	}
	return b, nil
}

// Apply performs e on n.
func (e Event) Apply(n *guild.Notifier) error {
	switch strings.TrimSpace(e.Op) {
	case OpPlayerLeft:
		m, err := e.Member.Member()
		if err != nil {
			return err
		}
		return n.PlayerLeftGuild(m)
	case OpJoinResponse:
		r, err := guild.ParseJoinResult(e.Result)
		if err != nil {
			return err
		}
		return n.GuildJoinResponse(r)
	case OpCreateResult:
		ce, err := guild.ParseCreateError(e.Result)
		if err != nil {
			return err
		}
		return n.ShowGuildCreateResult(ce)
	case OpGuildInfo:
		raw, err := DecodeHex(e.Raw)
		if err != nil {
			return err
		}
		return n.ShowGuildInfo(raw)
	case OpAssign:
		ms, err := Members(e.Members)
		if err != nil {
			return err
		}
		return n.AssignPlayersToGuild(ms, e.AppearsNew)
	case OpKickResult:
		k, err := guild.ParseKickResult(e.Result)
		if err != nil {
			return err
		}
		return n.GuildKickResult(k)
	case OpList:
		entries, err := ListEntries(e.Entries)
		if err != nil {
			return err
		}
		return n.ShowGuildList(entries, guild.ListSummary{
			TotalScore: e.TotalScore,
			Score:      e.Score,
			RivalGuild: e.Rival,
		})
	case OpJoinRequest:
		m, err := e.Member.Member()
		if err != nil {
			return err
		}
		return n.ShowGuildJoinRequest(m)
	case OpCreationDialog:
		return n.ShowGuildCreationDialog()
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidScript, e.Op)
	}
}
