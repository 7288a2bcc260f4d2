package avm1

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// An Instr is one decoded action. Function and try bodies are not
// nested: they follow the record as ordinary instructions, with the
// record's size fields exposed so callers can delimit them.
type Instr struct {
	Offset int // byte offset of the action in the stream
	Size   int // encoded size of the record, excluding any trailing body
	Op     Opcode

	Values []Value // Push
	Branch int     // Jump, If: signed byte distance from the end of the record
	Reg    uint8   // StoreRegister

	// DefineFunction
	Name     string
	Params   []string
	BodySize int

	// Try
	Try *TryInfo
}

// TryInfo is the decoded record of a Try action.
type TryInfo struct {
	HasCatch    bool
	HasFinally  bool
	CatchInReg  bool
	CatchName   string
	CatchReg    uint8
	TrySize     int
	CatchSize   int
	FinallySize int
}

// Target returns the absolute offset of the branch target of a Jump or
// If instruction.
func (in Instr) Target() int { return in.Offset + in.Size + in.Branch }

// Decode parses an action stream into its instructions. It fails on
// truncated records and malformed operands; it does not validate
// branch targets.
func Decode(code []byte) ([]Instr, error) {
	var ins []Instr
	off := 0
	for off < len(code) {
		op := Opcode(code[off])
		in := Instr{Offset: off, Op: op}
		sz := 1
		if op.HasPayload() {
			if off+3 > len(code) {
				return nil, fmt.Errorf("truncated action header at offset %d", off)
			}
			n := int(binary.LittleEndian.Uint16(code[off+1:]))
			if off+3+n > len(code) {
				return nil, fmt.Errorf("truncated %s payload at offset %d", op, off)
			}
			payload := code[off+3 : off+3+n]
			sz = 3 + n

			var err error
			switch op {
			case Push:
				in.Values, err = decodeValues(payload)
			case Jump, If:
				if len(payload) != 2 {
					err = fmt.Errorf("%s wants a 2-byte operand, got %d", op, len(payload))
					break
				}
				in.Branch = int(int16(binary.LittleEndian.Uint16(payload)))
			case StoreRegister:
				if len(payload) != 1 {
					err = fmt.Errorf("storeregister wants a 1-byte operand, got %d", len(payload))
					break
				}
				in.Reg = payload[0]
			case DefineFunc:
				err = decodeDefineFunc(&in, payload)
			case Try:
				in.Try, err = decodeTry(payload)
			}
			if err != nil {
				return nil, fmt.Errorf("at offset %d: %w", off, err)
			}
		}
		in.Size = sz
		ins = append(ins, in)
		off += sz
	}
	return ins, nil
}

func decodeValues(b []byte) ([]Value, error) {
	var vals []Value
	for len(b) > 0 {
		kind := ValueKind(b[0])
		b = b[1:]
		v := Value{Kind: kind}
		switch kind {
		case KindString:
			s, rest, err := readCString(b)
			if err != nil {
				return nil, err
			}
			v.Str, b = s, rest
		case KindNull, KindUndefined:
			// type code only
		case KindRegister:
			if len(b) < 1 {
				return nil, fmt.Errorf("truncated register value")
			}
			v.Reg, b = b[0], b[1:]
		case KindBool:
			if len(b) < 1 {
				return nil, fmt.Errorf("truncated bool value")
			}
			v.Bool, b = b[0] != 0, b[1:]
		case KindDouble:
			if len(b) < 8 {
				return nil, fmt.Errorf("truncated double value")
			}
			hi := binary.LittleEndian.Uint32(b)
			lo := binary.LittleEndian.Uint32(b[4:])
			v.Double = doubleFromWords(hi, lo)
			b = b[8:]
		case KindInt:
			if len(b) < 4 {
				return nil, fmt.Errorf("truncated int value")
			}
			v.Int, b = int32(binary.LittleEndian.Uint32(b)), b[4:]
		default:
			return nil, fmt.Errorf("unsupported push value type %d", kind)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func decodeDefineFunc(in *Instr, b []byte) error {
	name, b, err := readCString(b)
	if err != nil {
		return err
	}
	if len(b) < 2 {
		return fmt.Errorf("truncated definefunction record")
	}
	nparams := int(binary.LittleEndian.Uint16(b))
	b = b[2:]
	params := make([]string, 0, nparams)
	for i := 0; i < nparams; i++ {
		var p string
		p, b, err = readCString(b)
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	if len(b) != 2 {
		return fmt.Errorf("truncated definefunction record")
	}
	in.Name = name
	in.Params = params
	in.BodySize = int(binary.LittleEndian.Uint16(b))
	return nil
}

func decodeTry(b []byte) (*TryInfo, error) {
	if len(b) < 7 {
		return nil, fmt.Errorf("truncated try record")
	}
	flags := b[0]
	ti := &TryInfo{
		HasCatch:    flags&0x01 != 0,
		HasFinally:  flags&0x02 != 0,
		CatchInReg:  flags&0x04 != 0,
		TrySize:     int(binary.LittleEndian.Uint16(b[1:])),
		CatchSize:   int(binary.LittleEndian.Uint16(b[3:])),
		FinallySize: int(binary.LittleEndian.Uint16(b[5:])),
	}
	b = b[7:]
	if ti.CatchInReg {
		if len(b) != 1 {
			return nil, fmt.Errorf("truncated try record")
		}
		ti.CatchReg = b[0]
	} else {
		name, rest, err := readCString(b)
		if err != nil {
			return nil, err
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("trailing bytes in try record")
		}
		ti.CatchName = name
	}
	return ti, nil
}

func readCString(b []byte) (string, []byte, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	return "", nil, fmt.Errorf("unterminated string operand")
}

// Dasm writes an action stream in a flat, human-readable listing, one
// instruction per line.
func Dasm(code []byte) (string, error) {
	ins, err := Decode(code)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, in := range ins {
		sb.WriteString(in.format())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (in Instr) format() string {
	switch in.Op {
	case Push:
		strs := make([]string, len(in.Values))
		for i, v := range in.Values {
			strs[i] = v.String()
		}
		return "push " + strings.Join(strs, ", ")
	case Jump, If:
		return fmt.Sprintf("%s %d", in.Op, in.Branch)
	case StoreRegister:
		return fmt.Sprintf("storeregister %d", in.Reg)
	case DefineFunc:
		return fmt.Sprintf("definefunction %q (%s) %d", in.Name, strings.Join(in.Params, " "), in.BodySize)
	case Try:
		s := fmt.Sprintf("try %d %d %d", in.Try.TrySize, in.Try.CatchSize, in.Try.FinallySize)
		if in.Try.CatchInReg {
			s += fmt.Sprintf(" register %d", in.Try.CatchReg)
		} else if in.Try.HasCatch {
			s += fmt.Sprintf(" %q", in.Try.CatchName)
		}
		return s
	default:
		return in.Op.String()
	}
}

func doubleFromWords(hi, lo uint32) float64 {
	return math.Float64frombits(uint64(hi)<<32 | uint64(lo))
}
