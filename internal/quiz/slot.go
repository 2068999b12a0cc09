package quiz

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Slot is the answer position for one question. The zero value is
// unanswered; Skipped marks an explicit skip and encodes as JSON null.
type Slot struct {
	Value   string
	Skipped bool
}

func Answered(value string) Slot {
	return Slot{Value: value}
}

func SkippedSlot() Slot {
	return Slot{Skipped: true}
}

func (s Slot) IsAnswered() bool {
	return !s.Skipped && s.Value != ""
}

func (s Slot) IsUnanswered() bool {
	return !s.Skipped && s.Value == ""
}

func (s Slot) MarshalJSON() ([]byte, error) {
	if s.Skipped {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = SkippedSlot()
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*s = Answered(value)
	return nil
}

func NewSlots(n int) []Slot {
	return make([]Slot, n)
}
