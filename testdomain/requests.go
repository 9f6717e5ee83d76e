package testdomain

import (
	"context"
	"errors"
	"time"

	"github.com/mghro/open-cradle/request"
	"github.com/mghro/open-cradle/runtime"
	"github.com/mghro/open-cradle/value"
)

var addProps = request.Props{
	UUID:       "add_v1",
	Scope:      request.UUIDFullyCacheable,
	Level:      request.CacheMemory,
	ResultType: value.TypeInteger,
}

var multiplyProps = request.Props{
	UUID:       "multiply_v1",
	Scope:      request.UUIDFullyCacheable,
	Level:      request.CacheFull,
	ResultType: value.TypeInteger,
}

var failProps = request.Props{
	UUID:       "fail_v1",
	Scope:      request.UUIDSerializable,
	ResultType: value.TypeNil,
}

var sleepProps = request.Props{
	UUID:       "sleep_v1",
	Scope:      request.UUIDSerializable,
	ResultType: value.TypeNil,
}

var mockHTTPProps = request.Props{
	UUID:       "mock_http_get_v1",
	Scope:      request.UUIDSerializable,
	ResultType: value.TypeString,
	Title:      "mock http get",
}

func addBody(args ...value.Value) (value.Value, error) {
	sum := int64(0)
	for _, a := range args {
		i, err := a.Int()
		if err != nil {
			return value.Value{}, err
		}
		sum += i
	}
	return value.Int(sum), nil
}

func multiplyBody(args ...value.Value) (value.Value, error) {
	product := int64(1)
	for _, a := range args {
		i, err := a.Int()
		if err != nil {
			return value.Value{}, err
		}
		product *= i
	}
	return value.Int(product), nil
}

func failBody(args ...value.Value) (value.Value, error) {
	msg := "forced failure"
	if len(args) > 0 {
		if s, err := args[0].Str(); err == nil {
			msg = s
		}
	}
	return value.Value{}, errors.New(msg)
}

// sleepBody waits for its argument (milliseconds) on the context's
// cancellation-aware scheduler.
func sleepBody(ctx context.Context, args ...value.Value) (value.Value, error) {
	millis := int64(0)
	if len(args) > 0 {
		i, err := args[0].Int()
		if err != nil {
			return value.Value{}, err
		}
		millis = i
	}
	rctx, ok := runtime.From(ctx)
	if !ok {
		return value.Value{}, errors.New("testdomain: no runtime context")
	}
	if err := rctx.ScheduleAfter(ctx, time.Duration(millis)*time.Millisecond); err != nil {
		return value.Value{}, err
	}
	return value.Nil(), nil
}

// mockHTTPBody answers the canned response installed via the channel's
// mock_http message.
func mockHTTPBody(ctx context.Context, _ ...value.Value) (value.Value, error) {
	rctx, ok := runtime.From(ctx)
	if !ok {
		return value.Value{}, errors.New("testdomain: no runtime context")
	}
	body, installed := rctx.Resources().MockHTTP.Get()
	if !installed {
		return value.Value{}, errors.New("testdomain: no canned http response installed")
	}
	return value.String(body), nil
}

// Add builds add_v1 over the given subrequests.
func Add(args ...request.Request) (request.Request, error) {
	return request.NewPlain(addProps, addBody, args...)
}

// AddLit builds add_v1 over literal integers.
func AddLit(a, b int64) (request.Request, error) {
	return Add(request.Lit(value.Int(a)), request.Lit(value.Int(b)))
}

// MultiplyLit builds multiply_v1 (fully cached) over literal integers.
func MultiplyLit(a, b int64) (request.Request, error) {
	return request.NewPlain(multiplyProps, multiplyBody,
		request.Lit(value.Int(a)), request.Lit(value.Int(b)))
}

// Fail builds fail_v1 with the given message.
func Fail(msg string) (request.Request, error) {
	return request.NewPlain(failProps, failBody, request.Lit(value.String(msg)))
}

// Sleep builds sleep_v1 waiting for the given duration.
func Sleep(d time.Duration) (request.Request, error) {
	return request.NewCoro(sleepProps, sleepBody,
		request.Lit(value.Int(d.Milliseconds())))
}

// MockHTTPGet builds mock_http_get_v1.
func MockHTTPGet() (request.Request, error) {
	return request.NewCoro(mockHTTPProps, mockHTTPBody)
}
