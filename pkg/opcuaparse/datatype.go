package opcuaparse

import (
	"fmt"
	"regexp"
	"strconv"
)

// ParsedDataType - результат разбора идентификатора типа данных.
type ParsedDataType struct {
	Raw       string `json:"raw"`
	NumericID uint32 `json:"numeric_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Formatted string `json:"formatted"`
}

// Встроенные типы данных OPC UA.
var dataTypeNames = map[uint32]string{
	1:  "Boolean",
	2:  "SByte",
	3:  "Byte",
	4:  "Int16",
	5:  "UInt16",
	6:  "Int32",
	7:  "UInt32",
	8:  "Int64",
	9:  "UInt64",
	10: "Float",
	11: "Double",
	12: "String",
	13: "DateTime",
	14: "Guid",
	15: "ByteString",
	16: "XmlElement",
	17: "NodeId",
	18: "ExpandedNodeId",
	19: "StatusCode",
	20: "QualifiedName",
	21: "LocalizedText",
	22: "ExtensionObject",
	23: "DataValue",
	24: "Variant",
	25: "DiagnosticInfo",
}

// DataTypeName возвращает имя встроенного типа по числовому коду,
// неизвестные коды превращаются в "Unknown(n)".
func DataTypeName(id uint32) string {
	if name, ok := dataTypeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", id)
}

var dataTypeIDRe = regexp.MustCompile(`(?:Identifier=|\bi=|^)(\d+)\b`)

// ParseDataType извлекает числовой код типа из текстового представления и
// подставляет читаемое имя. Нераспознанные строки возвращаются как есть.
func ParseDataType(raw string) ParsedDataType {
	m := dataTypeIDRe.FindStringSubmatch(raw)
	if m == nil {
		return ParsedDataType{Raw: raw, Formatted: raw}
	}

	id64, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return ParsedDataType{Raw: raw, Formatted: raw}
	}

	id := uint32(id64)
	name := DataTypeName(id)
	return ParsedDataType{
		Raw:       raw,
		NumericID: id,
		Name:      name,
		Formatted: name,
	}
}
