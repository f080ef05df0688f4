package nakama

import (
	"encoding/json"
	"fmt"

	"blackjack/internal/app"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var wireMarshal = proto.MarshalOptions{Deterministic: true}

// toStruct maps any JSON-tagged value onto a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

func encodeSnapshot(snap app.Snapshot) ([]byte, error) {
	s, err := toStruct(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to convert snapshot: %w", err)
	}
	return wireMarshal.Marshal(s)
}

func encodeEvent(ev app.Event) ([]byte, error) {
	s, err := toStruct(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to convert event %s: %w", ev.Kind, err)
	}
	return wireMarshal.Marshal(s)
}

func encodeError(code int, message string) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"code":    code,
		"message": message,
	})
	if err != nil {
		return nil, err
	}
	return wireMarshal.Marshal(s)
}

// decodePayload reads a client payload. Clients may send a JSON object or a
// binary Struct; an empty payload decodes to an empty Struct.
func decodePayload(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(data) == 0 {
		return s, nil
	}
	var err error
	if data[0] == '{' {
		err = protojson.Unmarshal(data, s)
	} else {
		err = proto.Unmarshal(data, s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return s, nil
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("missing %q", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%q must be a number", name)
	}
	if n.NumberValue != float64(int(n.NumberValue)) {
		return 0, fmt.Errorf("%q must be an integer", name)
	}
	return int(n.NumberValue), nil
}

func boolField(s *structpb.Struct, name string) (bool, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return false, fmt.Errorf("missing %q", name)
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%q must be a boolean", name)
	}
	return b.BoolValue, nil
}

// matchLabel is indexed by Nakama so RPCs can find a player's running match.
func matchLabel(ownerID, header string) (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"game":   "blackjack",
		"owner":  ownerID,
		"header": header,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// jsonResponse is the RPC reply encoding.
func jsonResponse(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
