package codec

import (
	"fmt"
	"reflect"

	"github.com/near/borsh-go"
)

// Marshal encodes v with the borsh layout used for contract arguments and
// transactions. A non-nil pointer is encoded as the value it points to;
// borsh-go would otherwise prefix it with an Option tag.
func Marshal(v interface{}) ([]byte, error) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		v = rv.Elem().Interface()
	}

	bz, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("failed to borsh-encode %T: %w", v, err)
	}

	return bz, nil
}

// Unmarshal decodes borsh bytes into the value pointed to by v.
func Unmarshal(bz []byte, v interface{}) error {
	if err := borsh.Deserialize(v, bz); err != nil {
		return fmt.Errorf("failed to borsh-decode %T: %w", v, err)
	}

	return nil
}
