package codec

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-jsconfig/internal/hydrate"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct carries V as a protobuf google.protobuf.Struct, for transports that
// speak protobuf without a generated message for V. V must be a JSON object.
type Struct[V any] struct{}

func (Struct[V]) Encode(v V) ([]byte, error) {
	message, err := ToStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(message)
}

func (Struct[V]) Decode(b []byte) (V, error) {
	var message structpb.Struct
	if err := proto.Unmarshal(b, &message); err != nil {
		var zero V
		return zero, err
	}
	return FromStruct[V](&message)
}

// ToStruct converts v into a structpb.Struct using its JSON form.
func ToStruct[V any](v V) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("codec: %T is not a JSON object: %w", v, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return structpb.NewStruct(fields)
}

// FromStruct decodes message into V. Keys are matched after snake_case
// normalisation.
func FromStruct[V any](message *structpb.Struct) (V, error) {
	decoder := hydrate.NewDecoder(hydrate.WithSnakeCaseKeys[V]())
	return decoder.Decode(hydrate.Context{Source: "protobuf"}, message.AsMap())
}
