package model

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// State is the persisted/session document shape:
//
//	{
//	  "media": {"src": "clip.mp4", ...player fields},
//	  "timeline": {
//	    "startTime": 0, "endTime": 60000,
//	    "channels": [{"id", "parentId", "name", "allowedAnnotationIds"}],
//	    "timelineAnnotations": [{"id", "channelId", "type", "value",
//	        "startFrame", "endFrame", "startTime", "endTime",
//	        "modifiers": [{"key", "value"}]}]
//	  }
//	}
//
// View-only fields (selection, hover) are never part of it.
type State struct {
	Media    MediaState    `json:"media"`
	Timeline TimelineState `json:"timeline"`
}

// MediaState holds the media source plus whatever player fields the file
// carried. Unknown fields survive a read/write round trip untouched.
type MediaState struct {
	Src   string
	Extra map[string]json.RawMessage
}

// MarshalJSON flattens Src and Extra into one object.
func (m MediaState) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	src, err := json.Marshal(m.Src)
	if err != nil {
		return nil, err
	}
	out["src"] = src
	return json.Marshal(out)
}

// UnmarshalJSON splits the media object into Src and the remaining fields.
func (m *MediaState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Src = ""
	m.Extra = nil
	if v, ok := raw["src"]; ok {
		if err := json.Unmarshal(v, &m.Src); err != nil {
			return fmt.Errorf("media.src: %w", err)
		}
		delete(raw, "src")
	}
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// TimelineState is the "timeline" object of State.
type TimelineState struct {
	StartTime   float64           `json:"startTime"`
	EndTime     float64           `json:"endTime"`
	Channels    []ChannelState    `json:"channels"`
	Annotations []AnnotationState `json:"timelineAnnotations"`
}

// ChannelState is the wire form of Channel.
type ChannelState struct {
	ID                   int      `json:"id"`
	ParentID             *int     `json:"parentId"`
	Name                 string   `json:"name"`
	AllowedAnnotationIDs []string `json:"allowedAnnotationIds"`
}

// AnnotationState is the wire form of Annotation.
type AnnotationState struct {
	ID         int        `json:"id"`
	ChannelID  int        `json:"channelId"`
	Type       string     `json:"type"`
	Value      string     `json:"value"`
	StartFrame int        `json:"startFrame"`
	EndFrame   int        `json:"endFrame"`
	StartTime  float64    `json:"startTime"`
	EndTime    float64    `json:"endTime"`
	Modifiers  []Modifier `json:"modifiers"`
}

// ChannelFromState converts the wire form into a Channel.
func ChannelFromState(cs ChannelState) Channel {
	ch := Channel{
		ID:       ChannelID(cs.ID),
		ParentID: NoChannel,
		Name:     cs.Name,
	}
	if cs.ParentID != nil {
		ch.ParentID = ChannelID(*cs.ParentID)
	}
	if cs.AllowedAnnotationIDs != nil {
		ch.AllowedTypes = append([]string{}, cs.AllowedAnnotationIDs...)
	}
	return ch
}

// ToState converts c into its wire form.
func (c Channel) ToState() ChannelState {
	cs := ChannelState{ID: int(c.ID), Name: c.Name}
	if !c.IsRoot() {
		p := int(c.ParentID)
		cs.ParentID = &p
	}
	if c.AllowedTypes != nil {
		cs.AllowedAnnotationIDs = append([]string{}, c.AllowedTypes...)
	}
	return cs
}

// AnnotationFromState converts the wire form into an Annotation.
func AnnotationFromState(as AnnotationState) Annotation {
	a := Annotation{
		ID:         AnnotationID(as.ID),
		ChannelID:  ChannelID(as.ChannelID),
		Kind:       ParseKind(as.Type),
		Value:      as.Value,
		Start:      as.StartTime,
		End:        as.EndTime,
		StartFrame: as.StartFrame,
		EndFrame:   as.EndFrame,
	}
	if len(as.Modifiers) > 0 {
		a.Modifiers = append([]Modifier{}, as.Modifiers...)
	}
	return a
}

// ToState converts a into its wire form.
func (a Annotation) ToState() AnnotationState {
	mods := make([]Modifier, len(a.Modifiers))
	copy(mods, a.Modifiers)
	return AnnotationState{
		ID:         int(a.ID),
		ChannelID:  int(a.ChannelID),
		Type:       string(a.Kind),
		Value:      a.Value,
		StartFrame: a.StartFrame,
		EndFrame:   a.EndFrame,
		StartTime:  a.Start,
		EndTime:    a.End,
		Modifiers:  mods,
	}
}

// DecodeState reads a State document from r.
func DecodeState(r io.Reader) (State, error) {
	var s State
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return State{}, fmt.Errorf("decoding state: %w", err)
	}
	return s, nil
}

// ParseState decodes a State document held in memory.
func ParseState(data []byte) (State, error) {
	return DecodeState(bytes.NewReader(data))
}

// MarshalState encodes s as indented JSON.
func MarshalState(s State) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// EncodeState writes s to w as indented JSON.
func EncodeState(w io.Writer, s State) error {
	data, err := MarshalState(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// SaveStateFile writes s to path atomically (temp file + rename).
func SaveStateFile(path string, s State) error {
	data, err := MarshalState(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tracklane-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
