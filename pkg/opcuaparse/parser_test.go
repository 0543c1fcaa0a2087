package opcuaparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeIDCanonical(t *testing.T) {
	p := ParseNodeID("ns=2;s=Motor_Speed")
	require.Empty(t, p.Err, "Канонический идентификатор должен разбираться без ошибки")
	assert.Equal(t, "Motor_Speed", p.Identifier)
	assert.Equal(t, uint16(2), p.Namespace)
	assert.Equal(t, NodeIDString, p.NodeType)
	assert.Equal(t, "ns=2;s=Motor_Speed", p.Simple)
	assert.Equal(t, "ns=2;s=Motor_Speed", p.Formatted)
}

func TestParseNodeIDNumericWithoutNamespace(t *testing.T) {
	p := ParseNodeID("i=84")
	require.Empty(t, p.Err)
	assert.Equal(t, "84", p.Identifier)
	assert.Equal(t, uint16(0), p.Namespace)
	assert.Equal(t, NodeIDNumeric, p.NodeType)
	assert.Equal(t, "ns=0;i=84", p.Simple)
}

func TestParseNodeIDDebugFormat(t *testing.T) {
	raw := "NodeId(Identifier=84, NamespaceIndex=0, NodeIdType=<NodeIdType.Numeric: 2>)"
	p := ParseNodeID(raw)
	require.Empty(t, p.Err, "Отладочный формат должен разбираться без ошибки")
	assert.Equal(t, "84", p.Identifier)
	assert.Equal(t, uint16(0), p.Namespace)
	assert.Equal(t, NodeIDNumeric, p.NodeType)
	assert.Equal(t, "ns=0;i=84", p.Simple)
	assert.Equal(t, raw, p.Raw)
}

func TestParseNodeIDDebugFormatFourByte(t *testing.T) {
	raw := "NodeId(Identifier=3, NamespaceIndex=2, NodeIdType=<NodeIdType.FourByte: 1>)"
	p := ParseNodeID(raw)
	require.Empty(t, p.Err)
	assert.Equal(t, NodeIDNumeric, p.NodeType, "FourByte должен сводиться к Numeric")
	assert.Equal(t, "ns=2;i=3", p.Simple)
}

func TestParseNodeIDMalformed(t *testing.T) {
	raw := "совсем не идентификатор"
	p := ParseNodeID(raw)
	assert.NotEmpty(t, p.Err, "Ошибка разбора должна попадать в поле Err, а не паниковать")
	assert.Equal(t, raw, p.Formatted)
	assert.Equal(t, raw, p.Simple)
}

func TestFromParts(t *testing.T) {
	p := FromParts("2255", 0, NodeIDNumeric)
	assert.Equal(t, "ns=0;i=2255", p.Simple)
	assert.Equal(t, "ns=0;i=2255", p.Formatted)
	assert.Empty(t, p.Err)
}

func TestParseDataType(t *testing.T) {
	cases := []struct {
		raw  string
		name string
	}{
		{"NodeId(Identifier=1, NamespaceIndex=0, NodeIdType=<NodeIdType.TwoByte: 0>)", "Boolean"},
		{"i=11", "Double"},
		{"6", "Int32"},
		{"ns=0;i=12", "String"},
		{"Identifier=25", "DiagnosticInfo"},
	}
	for _, tc := range cases {
		p := ParseDataType(tc.raw)
		assert.Equal(t, tc.name, p.Formatted, "raw=%s", tc.raw)
	}
}

func TestParseDataTypeUnknown(t *testing.T) {
	p := ParseDataType("i=9000")
	assert.Equal(t, "Unknown(9000)", p.Formatted)

	p = ParseDataType("не тип")
	assert.Equal(t, "не тип", p.Formatted)
}

func TestDataTypeName(t *testing.T) {
	assert.Equal(t, "Boolean", DataTypeName(1))
	assert.Equal(t, "DiagnosticInfo", DataTypeName(25))
	assert.Equal(t, "Unknown(42)", DataTypeName(42))
}

func TestShouldInclude(t *testing.T) {
	assert.True(t, ShouldInclude(0, "ServerStatus", ""), "ServerStatus из ns=0 релевантен")
	assert.True(t, ShouldInclude(0, "", "CurrentTime"))
	assert.False(t, ShouldInclude(0, "SomethingElse", "SomethingElse"), "Прочие узлы из ns=0 фильтруются")
	assert.True(t, ShouldInclude(2, "Anything", "Anything"), "Любой узел из ns>0 релевантен")
}

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"Motor_Speed_RPM": CategorySpeed,
		"Tank_Pressure_1": CategoryPressure,
		"Line_Voltage":    CategoryElectrical,
		"Oven_Temp":       CategoryTemperature,
		"Production_Cnt":  CategoryCounter,
		"Whatever":        CategoryOther,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), "name=%s", name)
	}
}
