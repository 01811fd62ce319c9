package memory

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rcliao/duel-brain/internal/model"
)

// ErrCorruptRecord is returned when persisted bytes are not a JSON object.
var ErrCorruptRecord = errors.New("corrupt profile record")

// ParseRecord merges persisted fields over a default record one field at a
// time. Unknown fields are ignored and mistyped fields keep their default.
func ParseRecord(data []byte, now time.Time) (model.Record, error) {
	rec := model.DefaultRecord(now)
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return rec, ErrCorruptRecord
	}
	root := gjson.ParseBytes(data)

	mergeProfile(&rec.Profile, root.Get("profile"))

	if sessions := root.Get("sessions"); sessions.IsArray() {
		for _, raw := range sessions.Array() {
			if !raw.IsObject() {
				continue
			}
			var ss model.SessionSummary
			// Type mismatches leave the other fields decoded.
			json.Unmarshal([]byte(raw.Raw), &ss)
			if ss.Adaptations == nil {
				ss.Adaptations = []string{}
			}
			rec.Sessions = append(rec.Sessions, ss)
		}
	}

	if cs := root.Get("currentSession"); cs.IsObject() {
		cur := model.NewCurrentSession(now)
		json.Unmarshal([]byte(cs.Raw), &cur)
		rec.CurrentSession = cur
	}

	sanitize(&rec, now)
	return rec, nil
}

func mergeProfile(p *model.Profile, r gjson.Result) {
	if !r.IsObject() {
		return
	}
	num := func(path string, dst *float64) {
		if v := r.Get(path); v.Type == gjson.Number {
			*dst = v.Float()
		}
	}
	str := func(path string, dst *string) {
		if v := r.Get(path); v.Type == gjson.String && v.String() != "" {
			*dst = v.String()
		}
	}

	num("aggressionRatio", &p.AggressionRatio)
	num("blockFrequency", &p.BlockFrequency)
	num("skillRating", &p.SkillRating)
	num("winRate", &p.WinRate)
	str("preferredRange", &p.PreferredRange)
	str("lowHealthBehavior", &p.LowHealthBehavior)
	str("winningBehavior", &p.WinningBehavior)

	if v := r.Get("totalFights"); v.Type == gjson.Number {
		p.TotalFights = int(v.Int())
	}
	if v := r.Get("topPatterns"); v.IsArray() {
		p.TopPatterns = []string{}
		for _, e := range v.Array() {
			if e.Type == gjson.String {
				p.TopPatterns = append(p.TopPatterns, e.String())
			}
		}
	}
	if v := r.Get("spellUsage"); v.IsObject() {
		v.ForEach(func(k, n gjson.Result) bool {
			if n.Type == gjson.Number && n.Int() > 0 {
				p.SpellUsage[k.String()] = int(n.Int())
			}
			return true
		})
	}
}

// sanitize forces every bounded field back inside its interval.
func sanitize(rec *model.Record, now time.Time) {
	p := &rec.Profile
	p.AggressionRatio = clamp01(p.AggressionRatio)
	p.BlockFrequency = clamp01(p.BlockFrequency)
	p.WinRate = clamp01(p.WinRate)
	p.SkillRating = clamp(p.SkillRating, 0, 10)
	if p.TotalFights < 0 {
		p.TotalFights = 0
	}
	if len(p.TopPatterns) > MaxTopPatterns {
		p.TopPatterns = p.TopPatterns[:MaxTopPatterns]
	}
	if p.SpellUsage == nil {
		p.SpellUsage = map[string]int{}
	}

	if len(rec.Sessions) > MaxSessions {
		rec.Sessions = rec.Sessions[len(rec.Sessions)-MaxSessions:]
	}
	if rec.Sessions == nil {
		rec.Sessions = []model.SessionSummary{}
	}

	cs := &rec.CurrentSession
	if cs.SpellUses == nil {
		cs.SpellUses = map[string]int{}
	}
	if cs.ActionSequence == nil {
		cs.ActionSequence = []string{}
	}
	if len(cs.ActionSequence) > MaxActionSequence {
		cs.ActionSequence = cs.ActionSequence[len(cs.ActionSequence)-MaxActionSequence:]
	}
	if cs.StartedAt.IsZero() {
		cs.StartedAt = now
	}
}
