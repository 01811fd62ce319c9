package scheduler

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rcliao/duel-brain/internal/model"
)

var (
	ErrNoJSON      = errors.New("no JSON object in reply")
	ErrInvalidJSON = errors.New("reply JSON is malformed")
)

// Defaults for missing or invalid fields.
const (
	DefaultMove   = model.MoveHold
	DefaultAction = model.ActionIdle
	DefaultTiming = model.TimingDelayed
)

// MaxReplyBytes bounds how much of a reply is scanned for a JSON object.
const MaxReplyBytes = 4096

// ExtractJSON returns the first balanced {...} region of text. Braces inside
// JSON string literals are ignored. Only the first MaxReplyBytes of text are
// scanned.
func ExtractJSON(text string) (string, bool) {
	if len(text) > MaxReplyBytes {
		text = text[:MaxReplyBytes]
	}
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > 0 {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseDecision pulls a decision out of free-form model output. Each field is
// checked on its own; bad values fall back to their default. Spells that
// cannot be cast right now become none.
func ParseDecision(text string, snap model.Snapshot) (model.Decision, error) {
	raw, ok := ExtractJSON(text)
	if !ok {
		return model.Decision{}, ErrNoJSON
	}
	if !gjson.Valid(raw) {
		return model.Decision{}, ErrInvalidJSON
	}
	r := gjson.Parse(raw)

	d := model.Decision{
		Move:   model.Move(field(r, "move")),
		Action: model.Action(field(r, "action")),
		Timing: model.Timing(field(r, "timing")),
		Spell:  model.Spell(field(r, "spell")),
	}
	if !model.ValidMoves[d.Move] {
		d.Move = DefaultMove
	}
	if !model.ValidActions[d.Action] {
		d.Action = DefaultAction
	}
	if !model.ValidTimings[d.Timing] {
		d.Timing = DefaultTiming
	}
	if d.Spell == "none" || !model.ValidSpells[d.Spell] || !snap.CanCast(d.Spell) {
		d.Spell = model.SpellNone
	}
	return d, nil
}

func field(r gjson.Result, name string) string {
	v := r.Get(name)
	if v.Type != gjson.String {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.String()))
}
