package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/guildwire/internal/conn"
	"github.com/danmuck/guildwire/internal/guild"
	"github.com/danmuck/guildwire/internal/protocol/frame"
	"github.com/danmuck/guildwire/internal/testutil/testlog"
)

func TestScriptTemplateReplays(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "events.toml")
	if err := WriteTemplate(path, "script", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	if s.Name != "guild-lifecycle" || len(s.Events) != 9 {
		t.Fatalf("unexpected script: name=%q events=%d", s.Name, len(s.Events))
	}

	rec := conn.NewRecorder()
	n := guild.NewNotifier(rec)
	for i, e := range s.Events {
		if err := e.Apply(n); err != nil {
			t.Fatalf("event %d (%s): %v", i, e.Op, err)
		}
	}

	wantCodes := []uint8{
		guild.CodeCreateDialog, guild.CodeCreateResult, guild.CodeJoinRequest, guild.CodeJoinResponse,
		guild.CodeAssignToGuild, guild.CodeList, 0x66, guild.CodeKickResult, guild.CodePlayerLeft,
	}
	frames := rec.Frames()
	if len(frames) != len(wantCodes) {
		t.Fatalf("expected %d frames, got %d", len(wantCodes), len(frames))
	}
	for i, code := range wantCodes {
		_, got, ok := frame.Peek(frames[i])
		if !ok || got != code {
			t.Fatalf("frame %d: code 0x%02X want 0x%02X", i, got, code)
		}
	}
	if frames[8][3]&0x80 == 0 {
		t.Fatalf("guild master departure not flagged: % X", frames[8])
	}
}

func TestParseScriptRejectsInvalidEvents(t *testing.T) {
	cases := map[string]string{
		"empty":          `name = "x"`,
		"missing op":     "[[event]]\nresult = \"ok\"",
		"unknown op":     "[[event]]\nop = \"alliance\"",
		"missing member": "[[event]]\nop = \"player_left\"",
		"missing result": "[[event]]\nop = \"kick_result\"",
		"missing raw":    "[[event]]\nop = \"guild_info\"",
	}
	for name, data := range cases {
		if _, err := ParseScript([]byte(data)); !errors.Is(err, ErrInvalidScript) {
			t.Fatalf("%s: expected ErrInvalidScript, got %v", name, err)
		}
	}
}

func TestApplyRejectsUnknownNames(t *testing.T) {
	testlog.Start(t)
	n := guild.NewNotifier(conn.NewRecorder())
	e := Event{Op: OpKickResult, Result: "exploded"}
	if err := e.Apply(n); !errors.Is(err, guild.ErrUnknownValue) {
		t.Fatalf("expected ErrUnknownValue, got %v", err)
	}
	e = Event{Op: OpAssign, Members: []MemberEntry{{ID: 1, Position: "emperor"}}}
	if err := e.Apply(n); !errors.Is(err, guild.ErrUnknownValue) {
		t.Fatalf("expected ErrUnknownValue, got %v", err)
	}
}

func TestDecodeHex(t *testing.T) {
	b, err := DecodeHex("C1 03\n55")
	if err != nil || len(b) != 3 || b[2] != 0x55 {
		t.Fatalf("got % X err %v", b, err)
	}
	if _, err := DecodeHex("C1 0"); !errors.Is(err, ErrInvalidScript) {
		t.Fatalf("expected ErrInvalidScript, got %v", err)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guildctl.toml")
	if err := WriteTemplate(path, "guildctl", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, "guildctl", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "script", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("read back: %v", err)
	}
	if _, err := Template("nope"); err == nil {
		t.Fatalf("expected unknown template kind error")
	}
}
