package codec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mghro/open-cradle/value"
)

// EncodeMsgpack returns a content-equivalent MessagePack encoding of v,
// for interchange with external peers. The native encoding remains the
// canonical input to the cryptographic digest.
func EncodeMsgpack(v value.Value) ([]byte, error) {
	native, err := toInterface(v)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(native)
	if err != nil {
		return nil, fmt.Errorf("codec: msgpack encode: %w", err)
	}
	return data, nil
}

// DecodeMsgpack decodes a MessagePack-encoded value.
func DecodeMsgpack(data []byte) (value.Value, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var native any
	if err := dec.Decode(&native); err != nil {
		return value.Value{}, fmt.Errorf("codec: msgpack decode: %w", err)
	}
	return fromInterface(native)
}

func toInterface(v value.Value) (any, error) {
	switch v.Kind() {
	case value.TypeNil:
		return nil, nil
	case value.TypeBool:
		b, _ := v.Bool()
		return b, nil
	case value.TypeInteger:
		i, _ := v.Int()
		return i, nil
	case value.TypeFloat:
		f, _ := v.Float()
		return f, nil
	case value.TypeString:
		s, _ := v.Str()
		return s, nil
	case value.TypeBlob:
		b, _ := v.Blob()
		return b.Bytes(), nil
	case value.TypeDatetime:
		t, _ := v.Time()
		return t, nil
	case value.TypeArray:
		items, _ := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			conv, err := toInterface(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case value.TypeMap:
		pairs, _ := v.Pairs()
		out := make(map[any]any, len(pairs))
		for _, p := range pairs {
			k, err := toInterface(p.Key)
			if err != nil {
				return nil, err
			}
			val, err := toInterface(p.Value)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadTag, v.Kind())
	}
}

func fromInterface(native any) (value.Value, error) {
	switch x := native.(type) {
	case nil:
		return value.Nil(), nil
	case bool:
		return value.Bool(x), nil
	case int64:
		return value.Int(x), nil
	case uint64:
		return value.Int(int64(x)), nil
	case int:
		return value.Int(int64(x)), nil
	case float32:
		return value.Float(float64(x)), nil
	case float64:
		return value.Float(x), nil
	case string:
		return value.String(x), nil
	case []byte:
		return value.BlobValue(value.NewBlob(x)), nil
	case time.Time:
		return value.Datetime(x), nil
	case []any:
		items := make([]value.Value, len(x))
		for i, item := range x {
			conv, err := fromInterface(item)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = conv
		}
		return value.Array(items...), nil
	case map[any]any:
		pairs := make([]value.Pair, 0, len(x))
		for k, v := range x {
			key, err := fromInterface(k)
			if err != nil {
				return value.Value{}, err
			}
			val, err := fromInterface(v)
			if err != nil {
				return value.Value{}, err
			}
			pairs = append(pairs, value.Pair{Key: key, Value: val})
		}
		return value.Map(pairs...)
	case map[string]any:
		pairs := make([]value.Pair, 0, len(x))
		for k, v := range x {
			val, err := fromInterface(v)
			if err != nil {
				return value.Value{}, err
			}
			pairs = append(pairs, value.Pair{Key: value.String(k), Value: val})
		}
		return value.Map(pairs...)
	default:
		return value.Value{}, fmt.Errorf("%w: %T", ErrUnsupported, native)
	}
}
