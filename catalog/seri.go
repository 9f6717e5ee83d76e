package catalog

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/request"
)

// The envelope is a self-describing tree: the UUID followed by the
// arguments, each either a literal value (native codec bytes) or a nested
// request.

type wireNode struct {
	UUID string    `msgpack:"uuid"`
	Args []wireArg `msgpack:"args"`
}

type wireArg struct {
	IsRequest bool      `msgpack:"is_request"`
	Value     []byte    `msgpack:"value,omitempty"`
	Request   *wireNode `msgpack:"request,omitempty"`
}

// Serialize encodes a request for transport. Every function node in the
// tree must carry a serializable UUID.
func Serialize(req request.Request) ([]byte, error) {
	node, err := toWire(req)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("catalog: encoding envelope: %w", err)
	}
	return data, nil
}

func toWire(req request.Request) (*wireNode, error) {
	if req.UUIDScope() == request.UUIDNone {
		return nil, fmt.Errorf("%w: %s", request.ErrNotSerializable, req.ID())
	}
	node := &wireNode{UUID: req.UUID()}
	for _, arg := range req.Args() {
		if lit, ok := arg.(*request.Literal); ok {
			data, err := codec.EncodeBytes(lit.Value())
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, wireArg{Value: data})
			continue
		}
		sub, err := toWire(arg)
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, wireArg{IsRequest: true, Request: sub})
	}
	return node, nil
}

// Deserialize reconstructs a request from its envelope, looking every UUID
// up in the registry.
func (r *Registry) Deserialize(data []byte) (request.Request, error) {
	var node wireNode
	if err := msgpack.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	return r.fromWire(&node)
}

func (r *Registry) fromWire(node *wireNode) (request.Request, error) {
	if node == nil || node.UUID == "" {
		return nil, fmt.Errorf("%w: missing uuid", ErrBadEnvelope)
	}
	reg, err := r.Lookup(node.UUID)
	if err != nil {
		return nil, err
	}
	args := make([]request.Request, 0, len(node.Args))
	for _, warg := range node.Args {
		if warg.IsRequest {
			sub, err := r.fromWire(warg.Request)
			if err != nil {
				return nil, err
			}
			args = append(args, sub)
			continue
		}
		v, err := codec.DecodeBytes(warg.Value)
		if err != nil {
			return nil, err
		}
		args = append(args, request.Lit(v))
	}
	return reg.Rebuild(args)
}
