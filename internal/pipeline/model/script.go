// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// Scene is one beat of the 7-scene script arc.
type Scene struct {
	Type     SceneType `json:"type"`
	Text     string    `json:"text"`
	Keywords []string  `json:"keywords"`
}

// Script is the ordered scene sequence returned by the oracle.
type Script struct {
	Scenes []Scene `json:"scenes"`

	// Fallback marks the deterministic skeleton used when every oracle
	// attempt failed. Exempt from the quality gate.
	Fallback bool `json:"fallback,omitempty"`
}

// Hook returns the opening scene text, or "" for malformed scripts.
func (s Script) Hook() string {
	if len(s.Scenes) == 0 {
		return ""
	}
	return s.Scenes[0].Text
}

// Ending returns the final scene text, or "" for malformed scripts.
func (s Script) Ending() string {
	if len(s.Scenes) == 0 {
		return ""
	}
	return s.Scenes[len(s.Scenes)-1].Text
}

// Clone returns a deep copy of the script.
func (s Script) Clone() Script {
	cp := s
	cp.Scenes = make([]Scene, len(s.Scenes))
	for i, sc := range s.Scenes {
		cp.Scenes[i] = sc
		cp.Scenes[i].Keywords = append([]string(nil), sc.Keywords...)
	}
	return cp
}
