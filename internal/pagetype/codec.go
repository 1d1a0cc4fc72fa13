package pagetype

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Codec converts the stored field document of a type to and from its Go value.
type Codec interface {
	// Zero returns the value used when a page has no stored fields.
	Zero() any
	Decode(data []byte) (any, error)
	Encode(v any) ([]byte, error)
}

// JSONFields returns a codec storing *T as a JSON document.
func JSONFields[T any]() Codec {
	return jsonFields[T]{}
}

type jsonFields[T any] struct{}

func (jsonFields[T]) Zero() any {
	return new(T)
}

func (jsonFields[T]) Decode(data []byte) (any, error) {
	v := new(T)
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return v, nil
}

func (jsonFields[T]) Encode(v any) ([]byte, error) {
	switch f := v.(type) {
	case nil:
		return json.Marshal(new(T))
	case *T:
		if f == nil {
			return json.Marshal(new(T))
		}
		return json.Marshal(f)
	case T:
		return json.Marshal(&f)
	default:
		var zero T
		return nil, fmt.Errorf("encode fields: got %T, want %T", v, &zero)
	}
}
