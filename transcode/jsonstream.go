package transcode

import (
	"encoding/json"
	"fmt"
	"io"
)

// streamObj writes a JSON object incrementally so the caller never holds
// more than one field's encoded value in memory at a time.
type streamObj struct {
	w io.Writer
	n int
}

func newStreamObj(w io.Writer) (*streamObj, error) {
	if _, err := io.WriteString(w, "{"); err != nil {
		return nil, err
	}
	return &streamObj{w: w}, nil
}

func (s *streamObj) comma() error {
	if s.n == 0 {
		s.n++
		return nil
	}
	s.n++
	_, err := io.WriteString(s.w, ",")
	return err
}

func (s *streamObj) field(key string, val any) error {
	if err := s.comma(); err != nil {
		return err
	}
	kb, err := json.Marshal(key)
	if err != nil {
		return err
	}
	vb, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(kb); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, ":"); err != nil {
		return err
	}
	_, err = s.w.Write(vb)
	return err
}

// rawFieldStart writes key and its colon but no value; the caller then
// streams the value itself (e.g. a nested object holding a streamArr)
// without round-tripping it through json.Marshal.
func (s *streamObj) rawFieldStart(key string) error {
	if err := s.comma(); err != nil {
		return err
	}
	kb, err := json.Marshal(key)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(kb); err != nil {
		return err
	}
	_, err = io.WriteString(s.w, ":")
	return err
}

func (s *streamObj) close() error {
	_, err := io.WriteString(s.w, "}")
	return err
}

// streamArr writes a JSON array incrementally, one marshaled item per
// call to item, so the caller never needs the full event list in memory.
type streamArr struct {
	w io.Writer
	n int
}

func newStreamArr(w io.Writer) (*streamArr, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return nil, err
	}
	return &streamArr{w: w}, nil
}

func (s *streamArr) item(v any) error {
	if s.n > 0 {
		if _, err := io.WriteString(s.w, ","); err != nil {
			return err
		}
	}
	s.n++
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding JSON array item: %w", err)
	}
	_, err = s.w.Write(b)
	return err
}

func (s *streamArr) close() error {
	_, err := io.WriteString(s.w, "]")
	return err
}
