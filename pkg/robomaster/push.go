package robomaster

import (
	"fmt"
	"strconv"
	"strings"
)

// pushShape keys a record decoder by module, attribute and value count.
type pushShape struct {
	module string
	attr   string
	arity  int
}

var pushDecoders = map[pushShape]func(v []float64) Record{
	{"chassis", "position", 3}: func(v []float64) Record {
		return ChassisPosition{X: v[0], Y: v[1], Z: v[2]}
	},
	// Position push without the yaw component.
	{"chassis", "position", 2}: func(v []float64) Record {
		return ChassisPosition{X: v[0], Y: v[1]}
	},
	{"chassis", "attitude", 3}: func(v []float64) Record {
		return ChassisAttitude{Pitch: v[0], Roll: v[1], Yaw: v[2]}
	},
	{"chassis", "status", chassisStatusCount}: func(v []float64) Record {
		return statusFromValues(v)
	},
	{"gimbal", "attitude", 2}: func(v []float64) Record {
		return GimbalAttitude{Pitch: v[0], Yaw: v[1]}
	},
}

// ParsePush decodes one push datagram. A datagram carries one or more
// ';'-separated segments of the form "<module> push <attr> <values...>";
// segments after the first may drop "<module> push" and inherit it.
func ParsePush(datagram string) ([]Record, error) {
	var (
		out    []Record
		module string
	)
	for seg := range strings.SplitSeq(datagram, commandTerminate) {
		fields := strings.Fields(seg)
		if len(fields) == 0 {
			continue
		}
		if len(fields) >= 2 && fields[1] == "push" {
			module = fields[0]
			fields = fields[2:]
		}
		if module == "" || len(fields) == 0 {
			return nil, &DecodeError{Input: datagram, Reason: fmt.Sprintf("segment %q has no module", seg)}
		}

		attr := fields[0]
		values, err := parseFields(fields[1:])
		if err != nil {
			return nil, &DecodeError{Input: datagram, Reason: err.Error()}
		}
		decode, ok := pushDecoders[pushShape{module, attr, len(values)}]
		if !ok {
			return nil, &DecodeError{
				Input:  datagram,
				Reason: fmt.Sprintf("unknown record %s %s with %d values", module, attr, len(values)),
			}
		}
		out = append(out, decode(values))
	}
	if len(out) == 0 {
		return nil, &DecodeError{Input: datagram, Reason: "empty push"}
	}
	return out, nil
}

// ParseEvent decodes one event record without its terminator, for example
// "armor event hit 1 0".
func ParseEvent(record string) (Record, error) {
	fields := strings.Fields(record)
	if len(fields) < 3 || fields[1] != "event" {
		return nil, &DecodeError{Input: record, Reason: "not an event record"}
	}

	ints := make([]int, len(fields)-3)
	for i, f := range fields[3:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, &DecodeError{Input: record, Reason: fmt.Sprintf("value %d: %v", i, err)}
		}
		ints[i] = v
	}

	switch {
	case fields[0] == "armor" && fields[2] == ArmorHit && len(ints) == 2:
		return ArmorHitEvent{Index: ints[0], Type: ints[1]}, nil
	case fields[0] == "sound" && fields[2] == SoundApplause && len(ints) == 1:
		return SoundEvent{Count: ints[0]}, nil
	}
	return nil, &DecodeError{Input: record, Reason: fmt.Sprintf("unknown event %s %s with %d values", fields[0], fields[2], len(ints))}
}

// EventSplitter reassembles ';'-terminated records from a byte stream.
// Partial records are kept until their terminator arrives, up to
// DefaultBufSize bytes.
type EventSplitter struct {
	pending strings.Builder
}

// Feed appends b and returns every record it completes, trimmed. It fails
// with a DecodeError once the unterminated remainder outgrows DefaultBufSize.
func (s *EventSplitter) Feed(b []byte) ([]string, error) {
	s.pending.Write(b)
	buf := s.pending.String()

	var out []string
	if idx := strings.LastIndex(buf, commandTerminate); idx >= 0 {
		for rec := range strings.SplitSeq(buf[:idx], commandTerminate) {
			if rec = strings.TrimSpace(rec); rec != "" {
				out = append(out, rec)
			}
		}
		buf = buf[idx+1:]
		s.pending.Reset()
		s.pending.WriteString(buf)
	}

	if len(buf) > DefaultBufSize {
		s.pending.Reset()
		return out, &DecodeError{
			Input:  buf[:32] + "...",
			Reason: fmt.Sprintf("no terminator within %d bytes", DefaultBufSize),
		}
	}
	return out, nil
}

// Pending returns the buffered partial record.
func (s *EventSplitter) Pending() string {
	return s.pending.String()
}

func parseFields(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
