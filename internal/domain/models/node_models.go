package models

import (
	"fmt"
	"time"

	"github.com/iwtcode/industrialGateway/pkg/opcuaparse"
)

// Символические имена классов узлов.
const (
	NodeClassObject        = "Object"
	NodeClassVariable      = "Variable"
	NodeClassMethod        = "Method"
	NodeClassObjectType    = "ObjectType"
	NodeClassVariableType  = "VariableType"
	NodeClassReferenceType = "ReferenceType"
	NodeClassDataType      = "DataType"
)

var nodeClassNames = map[uint32]string{
	1:  NodeClassObject,
	2:  NodeClassVariable,
	4:  NodeClassMethod,
	8:  NodeClassObjectType,
	16: NodeClassVariableType,
	32: NodeClassReferenceType,
	64: NodeClassDataType,
}

// NodeClassName переводит числовой код класса узла в символическое имя,
// неизвестные коды превращаются в "Unknown(n)".
func NodeClassName(code uint32) string {
	if name, ok := nodeClassNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", code)
}

// RawNode - структурные сведения об узле, как их отдает драйвер протокола
// при обзоре. Поля идентификатора берутся из структурных аксессоров
// клиентской библиотеки, без разбора отладочных строк.
type RawNode struct {
	NodeID      string // каноническое текстовое представление
	Identifier  string
	Namespace   uint16
	IDType      opcuaparse.NodeIDType
	BrowseName  string
	DisplayName string
	NodeClass   uint32 // числовой код из протокола
}

// NodeRecord - результат обзора одного узла адресного пространства.
// Создается на время обзора и нигде не сохраняется.
type NodeRecord struct {
	NodeID       string                     `json:"node_id"`
	NodeIDParsed opcuaparse.ParsedNodeID    `json:"node_id_parsed"`
	NodeIDSimple string                     `json:"node_id_simple"`
	BrowseName   string                     `json:"browse_name"`
	DisplayName  string                     `json:"display_name"`
	NodeClass    string                     `json:"node_class"`
	Namespace    uint16                     `json:"namespace"`
	Value        *Value                     `json:"value,omitempty"`
	DataType     string                     `json:"data_type,omitempty"`
	DataTypeName string                     `json:"data_type_simple,omitempty"`
	Writable     *bool                      `json:"writable,omitempty"`
	Depth        int                        `json:"depth"`
	IsRelevant   bool                       `json:"is_relevant"`
	Category     string                     `json:"category"`
}

// TagValue - прочитанное значение тега Ethernet/IP устройства.
type TagValue struct {
	DeviceName string    `json:"device_name"`
	TagName    string    `json:"tag_name"`
	TagPath    string    `json:"tag_path"`
	Value      Value     `json:"value"`
	DataType   string    `json:"data_type"`
	Timestamp  time.Time `json:"timestamp"`
	Quality    string    `json:"quality"` // good, bad, uncertain
}

// NamespaceInfo - запись таблицы пространств имен сервера.
type NamespaceInfo struct {
	Index         int    `json:"index"`
	URI           string `json:"uri"`
	NodeIDExample string `json:"node_id_example"`
}
