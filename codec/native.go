package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/mghro/open-cradle/value"
)

// Wire layout per value: u32 type tag (little-endian), then a type-specific
// payload. Map entries are emitted in the iteration order of the source
// container, so round-trips are value-preserving but not byte-identical
// across differently ordered inputs.

// Encode writes the native encoding of v to w.
func Encode(w io.Writer, v value.Value) error {
	if err := writeU32(w, uint32(v.Kind())); err != nil {
		return err
	}
	switch v.Kind() {
	case value.TypeNil:
		return nil
	case value.TypeBool:
		b, _ := v.Bool()
		var payload byte
		if b {
			payload = 1
		}
		_, err := w.Write([]byte{payload})
		return err
	case value.TypeInteger:
		i, _ := v.Int()
		return writeU64(w, uint64(i))
	case value.TypeFloat:
		f, _ := v.Float()
		return writeU64(w, math.Float64bits(f))
	case value.TypeString:
		s, _ := v.Str()
		if err := writeU32(w, uint32(len(s))); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	case value.TypeBlob:
		b, _ := v.Blob()
		if err := writeU64(w, uint64(b.Size())); err != nil {
			return err
		}
		_, err := w.Write(b.Bytes())
		return err
	case value.TypeDatetime:
		t, _ := v.Time()
		return writeU64(w, uint64(t.UnixMilli()))
	case value.TypeArray:
		items, _ := v.Items()
		if err := writeU64(w, uint64(len(items))); err != nil {
			return err
		}
		for _, item := range items {
			if err := Encode(w, item); err != nil {
				return err
			}
		}
		return nil
	case value.TypeMap:
		pairs, _ := v.Pairs()
		if err := writeU64(w, uint64(len(pairs))); err != nil {
			return err
		}
		for _, p := range pairs {
			if err := Encode(w, p.Key); err != nil {
				return err
			}
			if err := Encode(w, p.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrBadTag, v.Kind())
	}
}

// EncodeBytes returns the native encoding of v.
func EncodeBytes(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads one native-encoded value from r.
func Decode(r io.Reader) (value.Value, error) {
	tag, err := readU32(r)
	if err != nil {
		return value.Value{}, err
	}
	switch value.Type(tag) {
	case value.TypeNil:
		return value.Nil(), nil
	case value.TypeBool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return value.Value{}, wrapEOF(err)
		}
		return value.Bool(b[0] != 0), nil
	case value.TypeInteger:
		u, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int64(u)), nil
	case value.TypeFloat:
		u, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(math.Float64frombits(u)), nil
	case value.TypeString:
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return value.Value{}, wrapEOF(err)
		}
		return value.String(string(buf)), nil
	case value.TypeBlob:
		n, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return value.Value{}, wrapEOF(err)
		}
		return value.BlobValue(value.NewBlob(buf)), nil
	case value.TypeDatetime:
		u, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Datetime(time.UnixMilli(int64(u)).UTC()), nil
	case value.TypeArray:
		n, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		items := make([]value.Value, 0, n)
		for i := uint64(0); i < n; i++ {
			item, err := Decode(r)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, item)
		}
		return value.Array(items...), nil
	case value.TypeMap:
		n, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		pairs := make([]value.Pair, 0, n)
		for i := uint64(0); i < n; i++ {
			k, err := Decode(r)
			if err != nil {
				return value.Value{}, err
			}
			v, err := Decode(r)
			if err != nil {
				return value.Value{}, err
			}
			pairs = append(pairs, value.Pair{Key: k, Value: v})
		}
		return value.Map(pairs...)
	default:
		return value.Value{}, fmt.Errorf("%w: %d", ErrBadTag, tag)
	}
}

// DecodeBytes decodes exactly one value from data, rejecting trailing bytes.
func DecodeBytes(data []byte) (value.Value, error) {
	r := bytes.NewReader(data)
	v, err := Decode(r)
	if err != nil {
		return value.Value{}, err
	}
	if r.Len() != 0 {
		return value.Value{}, fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return v, nil
}

func writeU32(w io.Writer, u uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], u)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, u uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapEOF(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapEOF(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func wrapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}
