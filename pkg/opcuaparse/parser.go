// Package opcuaparse нормализует идентификаторы узлов OPC UA и выполняет
// эвристическую классификацию обнаруженных узлов.
package opcuaparse

import (
	"fmt"
	"regexp"
	"strconv"
)

// NodeIDType - тип идентификатора узла.
type NodeIDType string

const (
	NodeIDNumeric NodeIDType = "Numeric"
	NodeIDString  NodeIDType = "String"
	NodeIDGuid    NodeIDType = "Guid"
	NodeIDOpaque  NodeIDType = "Opaque"
	NodeIDUnknown NodeIDType = "Unknown"
)

// ParsedNodeID - результат разбора идентификатора узла.
// При ошибке разбора Err заполняется, а Formatted/Simple содержат исходную
// строку: разбор никогда не возвращает ошибку наружу.
type ParsedNodeID struct {
	Raw        string     `json:"raw"`
	Identifier string     `json:"identifier,omitempty"`
	Namespace  uint16     `json:"namespace"`
	NodeType   NodeIDType `json:"node_type,omitempty"`
	Formatted  string     `json:"formatted"`
	Simple     string     `json:"simple"`
	Err        string     `json:"error,omitempty"`
}

var (
	// Канонический вид: "ns=2;s=MyTag", "i=84", "ns=0;i=2255", "g=...", "b=..."
	canonicalRe = regexp.MustCompile(`^(?:ns=(\d+);)?([isgb])=(.+)$`)

	// Отладочный вид из клиентских библиотек:
	// "NodeId(Identifier=3, NamespaceIndex=2, NodeIdType=<NodeIdType.FourByte: 1>)"
	identifierRe = regexp.MustCompile(`Identifier=([^,)]+)`)
	namespaceRe  = regexp.MustCompile(`NamespaceIndex=(\d+)`)
	nodeTypeRe   = regexp.MustCompile(`NodeIdType=[^A-Za-z]*(?:NodeIdType\.)?([A-Za-z]+)`)
)

// FromParts собирает ParsedNodeID из структурных полей клиентской библиотеки.
// Предпочтительный путь: никакого текстового разбора не требуется.
func FromParts(identifier string, namespace uint16, nodeType NodeIDType) ParsedNodeID {
	p := ParsedNodeID{
		Identifier: identifier,
		Namespace:  namespace,
		NodeType:   nodeType,
	}
	p.Formatted = formatted(identifier, namespace, nodeType)
	p.Simple = simple(identifier, namespace, nodeType)
	p.Raw = p.Simple
	return p
}

// ParseNodeID разбирает текстовое представление идентификатора узла.
// Поддерживается канонический вид ("ns=2;s=MyTag") и, как запасной вариант,
// отладочный вид клиентских библиотек. При неудаче возвращается исходная
// строка с заполненным полем Err.
func ParseNodeID(raw string) ParsedNodeID {
	if m := canonicalRe.FindStringSubmatch(raw); m != nil {
		ns := uint16(0)
		if m[1] != "" {
			if v, err := strconv.ParseUint(m[1], 10, 16); err == nil {
				ns = uint16(v)
			}
		}
		p := FromParts(m[3], ns, typeFromPrefix(m[2]))
		p.Raw = raw
		return p
	}

	idm := identifierRe.FindStringSubmatch(raw)
	if idm == nil {
		return ParsedNodeID{
			Raw:       raw,
			Formatted: raw,
			Simple:    raw,
			Err:       "unrecognized node id format",
		}
	}

	identifier := idm[1]
	ns := uint16(0)
	if nm := namespaceRe.FindStringSubmatch(raw); nm != nil {
		if v, err := strconv.ParseUint(nm[1], 10, 16); err == nil {
			ns = uint16(v)
		}
	}
	nodeType := NodeIDUnknown
	if tm := nodeTypeRe.FindStringSubmatch(raw); tm != nil {
		nodeType = normalizeType(tm[1])
	}

	p := FromParts(identifier, ns, nodeType)
	p.Raw = raw
	return p
}

func typeFromPrefix(prefix string) NodeIDType {
	switch prefix {
	case "i":
		return NodeIDNumeric
	case "s":
		return NodeIDString
	case "g":
		return NodeIDGuid
	case "b":
		return NodeIDOpaque
	}
	return NodeIDUnknown
}

// normalizeType сводит внутренние имена типов клиентских библиотек
// (TwoByte/FourByte и т.д.) к каноническим.
func normalizeType(t string) NodeIDType {
	switch t {
	case "Numeric", "TwoByte", "FourByte":
		return NodeIDNumeric
	case "String":
		return NodeIDString
	case "Guid":
		return NodeIDGuid
	case "ByteString", "Opaque":
		return NodeIDOpaque
	}
	return NodeIDUnknown
}

func formatted(identifier string, namespace uint16, nodeType NodeIDType) string {
	var short string
	switch nodeType {
	case NodeIDNumeric:
		short = "i=" + identifier
	case NodeIDString:
		short = "s=" + identifier
	case NodeIDGuid:
		short = "g=" + identifier
	case NodeIDOpaque:
		short = "b=" + identifier
	default:
		short = identifier
	}
	return fmt.Sprintf("ns=%d;%s", namespace, short)
}

func simple(identifier string, namespace uint16, nodeType NodeIDType) string {
	if nodeType == NodeIDNumeric {
		return fmt.Sprintf("ns=%d;i=%s", namespace, identifier)
	}
	return fmt.Sprintf("ns=%d;s=%s", namespace, identifier)
}
