package opcuaparse

import "strings"

// Категории узлов, присваиваемые по имени. Это приближенная разметка
// по подстрокам, а не точная онтология.
const (
	CategoryTemperature = "temperature"
	CategoryPressure    = "pressure"
	CategorySpeed       = "speed"
	CategoryElectrical  = "electrical"
	CategoryCounter     = "counter"
	CategoryOther       = "other"
)

// Полезные серверные переменные из системного пространства имен (ns=0),
// которые не отфильтровываются.
var usefulSystemVars = map[string]struct{}{
	"servername":   {},
	"serverstatus": {},
	"currenttime":  {},
	"starttime":    {},
	"buildinfo":    {},
	"servicelevel": {},
}

var categoryKeywords = []struct {
	category string
	terms    []string
}{
	{CategoryTemperature, []string{"temp", "temperature", "heat"}},
	{CategoryPressure, []string{"pressure", "press"}},
	{CategorySpeed, []string{"speed", "rpm", "velocity"}},
	{CategoryElectrical, []string{"volt", "voltage", "power"}},
	{CategoryCounter, []string{"count", "production", "total"}},
}

// ShouldInclude решает, относится ли узел к данным приложения.
// Пространство имен 0 содержит служебную информацию сервера и фильтруется,
// за исключением короткого списка серверных метаданных. Узлы из ненулевых
// пространств имен считаются релевантными всегда.
func ShouldInclude(namespace uint16, browseName, displayName string) bool {
	if namespace > 0 {
		return true
	}

	bn := strings.ToLower(browseName)
	dn := strings.ToLower(displayName)
	if _, ok := usefulSystemVars[bn]; ok {
		return true
	}
	if _, ok := usefulSystemVars[dn]; ok {
		return true
	}
	return false
}

// Classify присваивает узлу категорию по имени: первое совпадение побеждает,
// по умолчанию - CategoryOther.
func Classify(browseName string) string {
	name := strings.ToLower(browseName)
	for _, kw := range categoryKeywords {
		for _, term := range kw.terms {
			if strings.Contains(name, term) {
				return kw.category
			}
		}
	}
	return CategoryOther
}
