package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/mghro/open-cradle/value"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	data, err := EncodeBytes(v)
	if err != nil {
		t.Fatalf("EncodeBytes(%s) failed: %v", v, err)
	}
	got, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	return got
}

func TestRoundTrip(t *testing.T) {
	values := []value.Value{
		value.Nil(),
		value.Bool(true),
		value.Bool(false),
		value.Int(-42),
		value.Int(1 << 40),
		value.Float(3.5),
		value.String(""),
		value.String("héllo"),
		value.BlobValue(value.NewBlob([]byte{0, 1, 2, 255})),
		value.Datetime(time.Date(2024, 2, 29, 13, 14, 15, 250e6, time.UTC)),
		value.Array(value.Int(1), value.String("two"), value.Nil()),
		value.MustMap(
			value.Pair{Key: value.String("a"), Value: value.Int(1)},
			value.Pair{Key: value.String("b"), Value: value.Array(value.Bool(true), value.Nil(), value.Float(3.5))},
		),
	}
	for _, v := range values {
		t.Run(v.Kind().String()+"/"+v.String(), func(t *testing.T) {
			got := roundTrip(t, v)
			if !value.Equal(v, got) {
				t.Errorf("round trip changed value: %s -> %s", v, got)
			}
		})
	}
}

func TestDatetimePayload(t *testing.T) {
	// 1970-01-01T00:00:01.500Z is 1500 ms since the epoch; the payload is
	// the i64 milliseconds, little-endian.
	v := value.Datetime(time.Date(1970, 1, 1, 0, 0, 1, 500e6, time.UTC))
	data, err := EncodeBytes(v)
	if err != nil {
		t.Fatal(err)
	}
	wantPayload := []byte{0xDC, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if len(data) != 4+8 {
		t.Fatalf("encoded length = %d, want 12", len(data))
	}
	if !bytes.Equal(data[4:], wantPayload) {
		t.Errorf("payload = % X, want % X", data[4:], wantPayload)
	}
}

func TestNestedMapRoundTrip(t *testing.T) {
	v := value.MustMap(
		value.Pair{Key: value.String("a"), Value: value.Int(1)},
		value.Pair{
			Key: value.String("b"),
			Value: value.Array(
				value.Bool(true), value.Nil(), value.Float(3.5),
			),
		},
	)
	got := roundTrip(t, v)
	if !value.Equal(v, got) {
		t.Errorf("round trip changed value: %s -> %s", v, got)
	}
}

func TestDecode_Truncated(t *testing.T) {
	data, err := EncodeBytes(value.String("hello"))
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 3, 4, len(data) - 1} {
		if _, err := DecodeBytes(data[:n]); err == nil {
			t.Errorf("decoding %d-byte prefix should fail", n)
		}
	}
}

func TestDecode_TrailingData(t *testing.T) {
	data, err := EncodeBytes(value.Int(1))
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, 0xFF)
	if _, err := DecodeBytes(data); err == nil {
		t.Error("trailing data should be rejected")
	}
}

func TestDecode_BadTag(t *testing.T) {
	if _, err := DecodeBytes([]byte{0xEE, 0xEE, 0xEE, 0xEE}); err == nil {
		t.Error("unknown tag should be rejected")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	values := []value.Value{
		value.Nil(),
		value.Int(42),
		value.Float(2.25),
		value.String("x"),
		value.BlobValue(value.NewBlob([]byte{9, 8})),
		value.Datetime(time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)),
		value.Array(value.Int(1), value.Bool(false)),
		value.MustMap(value.Pair{Key: value.String("k"), Value: value.Int(5)}),
	}
	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			data, err := EncodeMsgpack(v)
			if err != nil {
				t.Fatalf("EncodeMsgpack failed: %v", err)
			}
			got, err := DecodeMsgpack(data)
			if err != nil {
				t.Fatalf("DecodeMsgpack failed: %v", err)
			}
			if !value.Equal(v, got) {
				t.Errorf("round trip changed value: %s -> %s", v, got)
			}
		})
	}
}
