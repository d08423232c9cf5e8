package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Edited records whether a comment was edited. On the wire it is either the
// bare boolean false or the timestamp string of the edit.
type Edited struct {
	at     string
	edited bool
}

// NotEdited is the value of a comment that was never changed.
func NotEdited() Edited { return Edited{} }

// EditedAt marks a comment as edited at ts.
func EditedAt(ts string) Edited { return Edited{at: ts, edited: true} }

func (e Edited) IsEdited() bool { return e.edited }

// Timestamp returns the edit time, or "" when the comment was not edited.
func (e Edited) Timestamp() string { return e.at }

func (e Edited) String() string {
	if !e.edited {
		return "false"
	}
	return e.at
}

func (e Edited) MarshalJSON() ([]byte, error) {
	if !e.edited {
		return []byte("false"), nil
	}
	return json.Marshal(e.at)
}

func (e *Edited) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("false")):
		*e = NotEdited()
		return nil
	case len(data) > 0 && data[0] == '"':
		var ts string
		if err := json.Unmarshal(data, &ts); err != nil {
			return err
		}
		*e = EditedAt(ts)
		return nil
	}
	return fmt.Errorf("edited: want false or a timestamp string, got %s", data)
}
