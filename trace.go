package jsconfig

import (
	"context"
	"encoding/json"
	"reflect"
)

// Frame sources reported in a Trace.
const (
	FrameScope     = "scope"
	FrameInherited = "inherited"
	FrameGlobal    = "global"
)

// Trace lists the frames that produce the effective configuration of a flow,
// innermost first. The last frame is always the global.
type Trace struct {
	Storage string  `json:"storage"`
	Strict  bool    `json:"strict"`
	Locked  bool    `json:"locked"`
	Frames  []Frame `json:"frames"`
}

// Frame is one layer of a Trace. Changed holds the options that differ from
// the frame below it.
type Frame struct {
	Source  string         `json:"source"`
	GuardID string         `json:"guard_id,omitempty"`
	Label   string         `json:"label,omitempty"`
	Values  map[string]any `json:"values"`
	Changed map[string]any `json:"changed,omitempty"`
}

// Effective returns the values of the innermost frame.
func (t Trace) Effective() map[string]any {
	if len(t.Frames) == 0 {
		return nil
	}
	return t.Frames[0].Values
}

// Trace describes the scopes active in ctx.
func (rt *Runtime) Trace(ctx context.Context) Trace {
	chain := rt.storage.head(ctx).chain()
	global := rt.global.Effective().Values()

	frames := make([]Frame, 0, len(chain)+1)
	below := global
	for _, f := range chain {
		values := f.snapshot.Values()
		entry := Frame{Source: FrameScope, Values: values, Changed: diffValues(below, values)}
		if f.inherited {
			entry.Source = FrameInherited
		} else {
			entry.GuardID = f.id.String()
			entry.Label = f.label
		}
		frames = append(frames, entry)
		below = values
	}
	frames = append(frames, Frame{Source: FrameGlobal, Values: global})

	// innermost first
	for i, j := 0, len(frames)-2; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return Trace{
		Storage: rt.storage.Name(),
		Strict:  rt.global.StrictMode(),
		Locked:  rt.global.Locked(),
		Frames:  frames,
	}
}

func diffValues(below, values map[string]any) map[string]any {
	var changed map[string]any
	for key, value := range values {
		if prev, ok := below[key]; ok && reflect.DeepEqual(prev, value) {
			continue
		}
		if changed == nil {
			changed = map[string]any{}
		}
		changed[key] = value
	}
	return changed
}

// ToJSON serialises the trace for logs or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
