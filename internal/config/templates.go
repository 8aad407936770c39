package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "guildctl", "config":
		return guildctlTemplate, nil
	case "script":
		return scriptTemplate, nil
	default:
		return "", fmt.Errorf("unknown template kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const guildctlTemplate = `node = "guildctl.local"

[log]
level = "info"
timestamp = true
no_color = false

[sink]
# tcp | quic | websocket | redis | stdout
transport = "stdout"
addr = "127.0.0.1:44405"
write_timeout = "5s"
dial_timeout = "5s"
dial_attempts = 3
# quic only
insecure_skip_verify = true
# redis only
channel = "guildwire.frames"

[metrics]
enabled = false
addr = "127.0.0.1:9464"
`

const scriptTemplate = `name = "guild-lifecycle"

[[event]]
op = "creation_dialog"

[[event]]
op = "create_result"
result = "ok"

[[event]]
op = "join_request"
member = { id = 0x0102, name = "Requester" }

[[event]]
op = "join_response"
result = "accepted"

[[event]]
op = "assign"
appears_new = true
members = [
  { id = 0x0101, guild_id = 7, position = "guild_master" },
  { id = 0x0102, guild_id = 7, position = "normal_member" },
]

[[event]]
op = "list"
total_score = 1200
score = 3
rival = "Rivals"
entries = [
  { name = "Master", server = 0, position = "guild_master" },
  { name = "Requester", server = 1, position = "normal_member" },
]

[[event]]
op = "guild_info"
raw = "C1 07 66 00 00 00 07"

[[event]]
op = "kick_result"
result = "succeeded"

[[event]]
op = "player_left"
member = { id = 0x0101, position = "guild_master" }
`
