package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValueKind - тег закрытого объединения типов значений узлов.
type ValueKind string

const (
	KindBool    ValueKind = "boolean"
	KindInt     ValueKind = "integer"
	KindUint    ValueKind = "unsigned"
	KindFloat   ValueKind = "float"
	KindString  ValueKind = "string"
	KindTime    ValueKind = "timestamp"
	KindBytes   ValueKind = "bytes"
	KindUnknown ValueKind = "unknown"
)

// Value - значение узла или тега как размеченное объединение над встроенными
// типами данных. Нераспознанные значения сохраняются в Raw с тегом KindUnknown,
// нетипизированного blob-а здесь не бывает.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Time  time.Time
	Bytes []byte
	Raw   any
}

// ValueFromAny классифицирует значение, полученное от клиентской библиотеки.
func ValueFromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{Kind: KindUnknown}
	case bool:
		return Value{Kind: KindBool, Bool: x}
	case int:
		return Value{Kind: KindInt, Int: int64(x)}
	case int8:
		return Value{Kind: KindInt, Int: int64(x)}
	case int16:
		return Value{Kind: KindInt, Int: int64(x)}
	case int32:
		return Value{Kind: KindInt, Int: int64(x)}
	case int64:
		return Value{Kind: KindInt, Int: x}
	case uint8:
		return Value{Kind: KindUint, Uint: uint64(x)}
	case uint16:
		return Value{Kind: KindUint, Uint: uint64(x)}
	case uint32:
		return Value{Kind: KindUint, Uint: uint64(x)}
	case uint64:
		return Value{Kind: KindUint, Uint: x}
	case float32:
		return Value{Kind: KindFloat, Float: float64(x)}
	case float64:
		return Value{Kind: KindFloat, Float: x}
	case string:
		return Value{Kind: KindString, Str: x}
	case time.Time:
		return Value{Kind: KindTime, Time: x}
	case []byte:
		return Value{Kind: KindBytes, Bytes: x}
	default:
		return Value{Kind: KindUnknown, Raw: v}
	}
}

// StringValue - удобный конструктор для текстовых значений (в том числе
// текстов ошибок чтения, подставляемых вместо значения).
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ReadErrorValue превращает ошибку чтения в значение-заглушку: обзор узла
// не прерывается из-за сбоя чтения одного значения.
func ReadErrorValue(err error) Value {
	return StringValue(fmt.Sprintf("read error: %v", err))
}

// Any возвращает значение как interface{} для сериализации.
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindUint:
		return v.Uint
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindTime:
		return v.Time
	case KindBytes:
		return v.Bytes
	default:
		return v.Raw
	}
}

func (v Value) String() string {
	return fmt.Sprint(v.Any())
}

type valueJSON struct {
	Type  ValueKind `json:"type"`
	Value any       `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueJSON{Type: v.Kind, Value: v.Any()})
}
