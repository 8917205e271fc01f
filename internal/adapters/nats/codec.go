package natsadapter

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages travel as protobuf-encoded google.protobuf.Struct values so that
// non-Go consumers can decode them without a schema registry.

func marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("message must be a JSON object: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func unmarshal(data []byte, v any) error {
	raw, err := ToJSON(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ToJSON converts a message payload into JSON.
func ToJSON(data []byte) ([]byte, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return protojson.Marshal(&s)
}
