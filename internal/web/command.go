package web

import (
	"encoding/json"
	"fmt"

	"github.com/sweeney/powerstrip/internal/core"
)

// Command kinds, matching the wire "cmd" field.
const (
	CmdRelay       = "relay"
	CmdSetTimer    = "setTimer"
	CmdSetLimit    = "setLimit"
	CmdSetPrice    = "setPrice"
	CmdClearNotifs = "clearNotifs"
)

// Command is a validated control command. Commands are parsed and validated
// here at the boundary; the core assumes every field is in range.
type Command struct {
	Kind    string
	ID      int // 1..4 for per-channel commands
	On      bool
	Minutes int
	Seconds uint64
	Price   float64
}

// commandJSON is the wire format of inbound WebSocket frames, e.g.
// {"cmd":"relay","id":1,"state":true}. Pointer fields distinguish a missing
// key from a zero value.
type commandJSON struct {
	Cmd     string   `json:"cmd"`
	ID      *int     `json:"id"`
	State   *bool    `json:"state"`
	Minutes *int     `json:"minutes"`
	Seconds *uint64  `json:"seconds"`
	Price   *float64 `json:"price"`
}

// ParseCommand parses and validates one command frame. A command either
// parses completely or is rejected with no effect.
func ParseCommand(data []byte) (Command, error) {
	var in commandJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return Command{}, fmt.Errorf("parse command: %w", err)
	}

	switch in.Cmd {
	case CmdRelay:
		id, err := channelID(in.ID)
		if err != nil {
			return Command{}, fmt.Errorf("relay: %w", err)
		}
		if in.State == nil {
			return Command{}, fmt.Errorf("relay: missing state")
		}
		return Command{Kind: CmdRelay, ID: id, On: *in.State}, nil

	case CmdSetTimer:
		id, err := channelID(in.ID)
		if err != nil {
			return Command{}, fmt.Errorf("setTimer: %w", err)
		}
		if in.Minutes == nil || *in.Minutes < 0 {
			return Command{}, fmt.Errorf("setTimer: minutes must be >= 0")
		}
		return Command{Kind: CmdSetTimer, ID: id, Minutes: *in.Minutes}, nil

	case CmdSetLimit:
		id, err := channelID(in.ID)
		if err != nil {
			return Command{}, fmt.Errorf("setLimit: %w", err)
		}
		// Zero is rejected, not "disable".
		if in.Seconds == nil || *in.Seconds == 0 {
			return Command{}, fmt.Errorf("setLimit: seconds must be > 0")
		}
		return Command{Kind: CmdSetLimit, ID: id, Seconds: *in.Seconds}, nil

	case CmdSetPrice:
		if in.Price == nil || *in.Price < 0 {
			return Command{}, fmt.Errorf("setPrice: price must be >= 0")
		}
		return Command{Kind: CmdSetPrice, Price: *in.Price}, nil

	case CmdClearNotifs:
		return Command{Kind: CmdClearNotifs}, nil

	case "":
		return Command{}, fmt.Errorf("missing cmd")

	default:
		return Command{}, fmt.Errorf("unknown cmd %q", in.Cmd)
	}
}

func channelID(id *int) (int, error) {
	if id == nil {
		return 0, fmt.Errorf("missing id")
	}
	if *id < 1 || *id > core.NumChannels {
		return 0, fmt.Errorf("id %d out of range", *id)
	}
	return *id, nil
}
