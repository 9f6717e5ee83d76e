package rpc

// Operation names on the wire.
const (
	opResolveSync          = "resolve_sync"
	opSubmitAsync          = "submit_async"
	opGetSubContexts       = "get_sub_contexts"
	opGetAsyncStatus       = "get_async_status"
	opGetAsyncErrorMessage = "get_async_error_message"
	opGetAsyncResponse     = "get_async_response"
	opRequestCancellation  = "request_cancellation"
	opFinishAsync          = "finish_async"
	opPing                 = "ping"
	opMockHTTP             = "mock_http"
	opAckResponse          = "ack_response"
)

// callFrame is a client-to-server message.
type callFrame struct {
	ID     uint64 `msgpack:"id"`
	Op     string `msgpack:"op"`
	Domain string `msgpack:"domain,omitempty"`
	Req    []byte `msgpack:"req,omitempty"`
	AID    uint64 `msgpack:"aid,omitempty"`
	Body   string `msgpack:"body,omitempty"`
	RespID uint64 `msgpack:"resp_id,omitempty"`
}

// replyFrame is a server-to-client message, matched to its call by ID.
type replyFrame struct {
	ID      uint64          `msgpack:"id"`
	OK      bool            `msgpack:"ok"`
	Error   string          `msgpack:"error,omitempty"`
	Result  *resultEnvelope `msgpack:"result,omitempty"`
	AID     uint64          `msgpack:"aid,omitempty"`
	Status  int32           `msgpack:"status,omitempty"`
	Msg     string          `msgpack:"msg,omitempty"`
	Subs    []wireSub       `msgpack:"subs,omitempty"`
	Version string          `msgpack:"version,omitempty"`
}

// wireSub describes one child of an async node.
type wireSub struct {
	AID       uint64 `msgpack:"aid"`
	IsRequest bool   `msgpack:"is_request"`
}

// resultEnvelope carries a serialized result: either the msgpack-encoded
// value inline, or a reference to a shared blob file.
type resultEnvelope struct {
	Data   []byte `msgpack:"data,omitempty"`
	File   string `msgpack:"file,omitempty"`
	RespID uint64 `msgpack:"resp_id,omitempty"`
}
