package codec

import (
	"testing"
	"time"

	"github.com/mghro/open-cradle/value"
)

func benchValue() value.Value {
	items := make([]value.Value, 0, 64)
	for i := int64(0); i < 64; i++ {
		items = append(items, value.Int(i))
	}
	return value.MustMap(
		value.Pair{Key: value.String("numbers"), Value: value.Array(items...)},
		value.Pair{Key: value.String("blob"), Value: value.BlobValue(value.NewBlob(make([]byte, 1024)))},
		value.Pair{Key: value.String("when"), Value: value.Datetime(time.Unix(1700000000, 0))},
	)
}

func BenchmarkEncode(b *testing.B) {
	v := benchValue()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeBytes(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	data, err := EncodeBytes(benchValue())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeBytes(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeMsgpack(b *testing.B) {
	v := benchValue()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeMsgpack(v); err != nil {
			b.Fatal(err)
		}
	}
}
