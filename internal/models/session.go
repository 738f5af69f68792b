// Package models defines the domain types shared across the application.
package models

import "encoding/json"

// SessionData holds the authenticated session fields returned by the broker.
// Fields the broker adds in future releases are preserved in Extra so a
// persisted record round-trips without loss.
type SessionData struct {
	Token      string `json:"token"`
	SID        string `json:"sid"`
	RID        string `json:"rid"`
	HSServerID string `json:"hsServerId"`
	DataCenter string `json:"dataCenter"`
	BaseURL    string `json:"baseUrl"`

	Extra map[string]json.RawMessage `json:"-"`
}

var sessionKnownKeys = map[string]bool{
	"token":      true,
	"sid":        true,
	"rid":        true,
	"hsServerId": true,
	"dataCenter": true,
	"baseUrl":    true,
}

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
func (d *SessionData) UnmarshalJSON(b []byte) error {
	type alias SessionData
	var known alias
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for k := range all {
		if sessionKnownKeys[k] {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		all = nil
	}

	*d = SessionData(known)
	d.Extra = all
	return nil
}

// MarshalJSON re-merges Extra with the known fields.
func (d SessionData) MarshalJSON() ([]byte, error) {
	type alias SessionData
	b, err := json.Marshal(alias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return b, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// SessionRecord is the persisted shape of a session: the broker's validate
// response envelope with the session fields under "data".
type SessionRecord struct {
	Data SessionData `json:"data"`
}

// HasToken reports whether the record carries a usable token. A record
// without one is treated the same as no record at all.
func (r *SessionRecord) HasToken() bool {
	return r != nil && r.Data.Token != ""
}
