package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
)

// LoadFile reads events from path. See Load.
func LoadFile(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load reads either a JSON array of event objects or one object per line.
// Blank lines are skipped. Every element must be a JSON object.
func Load(r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoEvents
	}

	var out []json.RawMessage
	if data[0] == '[' {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("events: invalid JSON array")
		}
		for i, item := range gjson.ParseBytes(data).Array() {
			if !item.IsObject() {
				return nil, fmt.Errorf("events[%d]: not an object", i)
			}
			out = append(out, json.RawMessage(item.Raw))
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for n := 1; sc.Scan(); n++ {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			if !gjson.ValidBytes(line) || !gjson.ParseBytes(line).IsObject() {
				return nil, fmt.Errorf("events line %d: not a JSON object", n)
			}
			out = append(out, json.RawMessage(bytes.Clone(line)))
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoEvents
	}
	return out, nil
}

// Expectation is what the state must show after the last event.
type Expectation struct {
	Score   int
	Wickets int
	Overs   float64
}

// Expect reads the running totals off the last event in evs.
func Expect(evs []json.RawMessage) (Expectation, bool) {
	if len(evs) == 0 {
		return Expectation{}, false
	}
	last := gjson.ParseBytes(evs[len(evs)-1])
	score, wickets, overs := last.Get("current_score"), last.Get("current_wickets"), last.Get("overs_played")
	if !score.Exists() || !wickets.Exists() || !overs.Exists() {
		return Expectation{}, false
	}
	return Expectation{Score: int(score.Int()), Wickets: int(wickets.Int()), Overs: overs.Float()}, true
}

// Write encodes evs as an indented JSON array.
func Write(w io.Writer, evs any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(evs)
}
