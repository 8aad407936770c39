// Package guild turns guild events into legacy client frames and hands them
// to the player's connection.
package guild

import (
	"errors"
	"fmt"

	"github.com/danmuck/guildwire/internal/protocol/field"
	"github.com/danmuck/guildwire/internal/protocol/frame"
	"github.com/danmuck/guildwire/internal/protocol/record"
	"github.com/rs/zerolog"
)

// Packet codes of the guild frames.
const (
	CodeJoinRequest   uint8 = 0x50
	CodeJoinResponse  uint8 = 0x51
	CodeList          uint8 = 0x52
	CodeKickResult    uint8 = 0x53
	CodeCreateDialog  uint8 = 0x55
	CodeCreateResult  uint8 = 0x56
	CodePlayerLeft    uint8 = 0x5D
	CodeAssignToGuild uint8 = 0x65
)

const (
	MaxEntries   = 0xFF
	RosterStride = 12
	ListStride   = 13

	rosterHeaderPayload = 1
	listHeaderPayload   = 20
	listNameWidth       = 10
	rivalNameWidth      = 9
)

var (
	ErrSendFailed     = errors.New("guild: send failed")
	ErrUnknownValue   = errors.New("guild: value has no wire mapping")
	ErrTooManyEntries = errors.New("guild: too many entries for one frame")
	ErrEmptyGuildInfo = errors.New("guild: empty guild info")
)

// Connection delivers a finished frame to the client.
type Connection interface {
	Send(b []byte) error
}

// Notifier encodes guild events for one connection. Each call builds its own
// buffer, so a Notifier may be used from several goroutines if its
// Connection allows it. The zero value encodes but has no connection, so
// every send fails with ErrSendFailed.
type Notifier struct {
	conn      Connection
	logger    zerolog.Logger
	resolveID func(Member) uint16
}

type Option func(*Notifier)

func WithLogger(logger zerolog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithIDResolver maps a member to the id the receiving client knows it by.
func WithIDResolver(fn func(Member) uint16) Option {
	return func(n *Notifier) {
		if fn != nil {
			n.resolveID = fn
		}
	}
}

func NewNotifier(conn Connection, opts ...Option) *Notifier {
	n := &Notifier{
		conn:   conn,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// PlayerLeftGuild tells the client m left. The id's top bit marks a guild
// master, whose departure dissolves the guild client-side. An id that already
// uses the top bit is rejected.
func (n *Notifier) PlayerLeftGuild(m Member) error {
	buf, off, err := frame.Build(frame.Header{Kind: frame.KindShort, Code: CodePlayerLeft}, 2)
	if err != nil {
		return err
	}
	master := m.Position == PositionGuildMaster
	if err := field.PutFlaggedUint16(buf, off, n.id(m), field.HighBitFlag, master); err != nil {
		return fmt.Errorf("player id: %w", err)
	}
	return n.send(CodePlayerLeft, buf)
}

func (n *Notifier) GuildJoinResponse(r JoinResult) error {
	b, err := wireByte(joinResultWire, r)
	if err != nil {
		return err
	}
	return n.sendByte(CodeJoinResponse, b)
}

func (n *Notifier) ShowGuildCreateResult(e CreateError) error {
	detail, err := wireByte(createErrorWire, e)
	if err != nil {
		return err
	}
	buf, off, err := frame.Build(frame.Header{Kind: frame.KindShort, Code: CodeCreateResult}, 2)
	if err != nil {
		return err
	}
	if e == CreateOK {
		buf[off] = 1
	}
	buf[off+1] = detail
	return n.send(CodeCreateResult, buf)
}

// ShowGuildInfo forwards an already serialized guild info frame untouched.
func (n *Notifier) ShowGuildInfo(raw []byte) error {
	if len(raw) == 0 {
		return ErrEmptyGuildInfo
	}
	_, code, _ := frame.Peek(raw)
	return n.send(code, raw)
}

// AssignPlayersToGuild shows guild membership above the given players.
// appearsNew applies to every record of the frame. Ids that already use the
// top bit are rejected and nothing is sent.
func (n *Notifier) AssignPlayersToGuild(members []Member, appearsNew bool) error {
	if len(members) > MaxEntries {
		return fmt.Errorf("%w: %d members", ErrTooManyEntries, len(members))
	}
	payload := rosterHeaderPayload + record.Size(len(members), RosterStride)
	buf, off, err := frame.Build(frame.Header{Kind: frame.KindLong, Code: CodeAssignToGuild}, payload)
	if err != nil {
		return err
	}
	buf[off] = uint8(len(members))

	_, err = record.Put(buf, off+rosterHeaderPayload, RosterStride, members, func(dst []byte, m Member) error {
		if err := field.PutUint32(dst, 0, m.GuildID); err != nil {
			return err
		}
		dst[4] = uint8(m.Position)
		return field.PutFlaggedUint16(dst, 7, n.id(m), field.HighBitFlag, appearsNew)
	})
	if err != nil {
		return err
	}
	return n.send(CodeAssignToGuild, buf)
}

func (n *Notifier) GuildKickResult(k KickResult) error {
	b, err := wireByte(kickResultWire, k)
	if err != nil {
		return err
	}
	return n.sendByte(CodeKickResult, b)
}

// ShowGuildList sends the member list window.
func (n *Notifier) ShowGuildList(entries []ListEntry, sum ListSummary) error {
	if len(entries) > MaxEntries {
		return fmt.Errorf("%w: %d entries", ErrTooManyEntries, len(entries))
	}
	payload := listHeaderPayload + record.Size(len(entries), ListStride)
	buf, off, err := frame.Build(frame.Header{Kind: frame.KindLong, Code: CodeList}, payload)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		buf[off] = 1
	}
	buf[off+1] = uint8(len(entries))
	// off+2 and off+3 are padding
	if err := field.PutUint32(buf, off+4, sum.TotalScore); err != nil {
		return err
	}
	buf[off+8] = sum.Score
	if err := field.PutText(buf, off+9, sum.RivalGuild, rivalNameWidth, field.EncodingUTF8); err != nil {
		return fmt.Errorf("rival guild name: %w", err)
	}

	_, err = record.Put(buf, off+listHeaderPayload, ListStride, entries, func(dst []byte, e ListEntry) error {
		if err := field.PutText(dst, 0, e.Name, listNameWidth, field.EncodingASCII); err != nil {
			return err
		}
		dst[10] = e.ServerID
		dst[11] = uint8(e.Position)
		return nil
	})
	if err != nil {
		return err
	}
	return n.send(CodeList, buf)
}

// ShowGuildJoinRequest asks the guild master to answer requester.
func (n *Notifier) ShowGuildJoinRequest(requester Member) error {
	buf, off, err := frame.Build(frame.Header{Kind: frame.KindShort, Code: CodeJoinRequest}, 2)
	if err != nil {
		return err
	}
	if err := field.PutUint16(buf, off, n.id(requester)); err != nil {
		return err
	}
	return n.send(CodeJoinRequest, buf)
}

func (n *Notifier) ShowGuildCreationDialog() error {
	buf, _, err := frame.Build(frame.Header{Kind: frame.KindShort, Code: CodeCreateDialog}, 0)
	if err != nil {
		return err
	}
	return n.send(CodeCreateDialog, buf)
}

func (n *Notifier) id(m Member) uint16 {
	if n.resolveID == nil {
		return m.ID
	}
	return n.resolveID(m)
}

func (n *Notifier) sendByte(code, b uint8) error {
	buf, off, err := frame.Build(frame.Header{Kind: frame.KindShort, Code: code}, 1)
	if err != nil {
		return err
	}
	buf[off] = b
	return n.send(code, buf)
}

func (n *Notifier) send(code uint8, buf []byte) error {
	if n.conn == nil {
		return fmt.Errorf("%w: code=0x%02X: no connection", ErrSendFailed, code)
	}
	if err := n.conn.Send(buf); err != nil {
		n.logger.Error().Err(err).Uint8("code", code).Int("len", len(buf)).Msg("guild frame send failed")
		return fmt.Errorf("%w: code=0x%02X: %w", ErrSendFailed, code, err)
	}
	n.logger.Debug().Uint8("code", code).Int("len", len(buf)).Msg("guild frame sent")
	return nil
}
