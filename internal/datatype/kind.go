// Package datatype defines the value kinds that implement model data types.
package datatype

import (
	"fmt"
	"strings"
)

// Kind identifies the value kind backing a data type.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAny
	KindText
	KindMLText
	KindContent
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindDate
	KindDateTime
	KindBoolean
	KindQName
	KindNodeRef
	KindChildAssocRef
	KindAssocRef
	KindPath
	KindCategory
	KindLocale
	KindVersion
	KindPeriod
	KindEncrypted
)

// Checker validates one value of a kind.
type Checker func(value any) error

type kindInfo struct {
	name    string
	numeric bool
	check   Checker
}

var kindTable = [...]kindInfo{
	KindUnknown:       {name: "unknown", check: checkUnknown},
	KindAny:           {name: "any", check: checkAny},
	KindText:          {name: "text", check: checkText},
	KindMLText:        {name: "mltext", check: checkMLText},
	KindContent:       {name: "content", check: checkText},
	KindInt:           {name: "int", numeric: true, check: checkInteger(32)},
	KindLong:          {name: "long", numeric: true, check: checkInteger(64)},
	KindFloat:         {name: "float", numeric: true, check: checkFloat(32)},
	KindDouble:        {name: "double", numeric: true, check: checkFloat(64)},
	KindDate:          {name: "date", check: checkDate},
	KindDateTime:      {name: "datetime", check: checkDateTime},
	KindBoolean:       {name: "boolean", check: checkBoolean},
	KindQName:         {name: "qname", check: checkQName},
	KindNodeRef:       {name: "noderef", check: checkNodeRef},
	KindChildAssocRef: {name: "childassocref", check: checkChildAssocRef},
	KindAssocRef:      {name: "assocref", check: checkAssocRef},
	KindPath:          {name: "path", check: checkPath},
	KindCategory:      {name: "category", check: checkNodeRef},
	KindLocale:        {name: "locale", check: checkLocale},
	KindVersion:       {name: "version", check: checkVersion},
	KindPeriod:        {name: "period", check: checkPeriod},
	KindEncrypted:     {name: "encrypted", check: checkAny},
}

var kindsByName = func() map[string]Kind {
	out := make(map[string]Kind, len(kindTable))
	for k, info := range kindTable {
		if Kind(k) == KindUnknown {
			continue
		}
		out[info.name] = Kind(k)
	}
	return out
}()

// ParseKind resolves a kind by name. Names are case-insensitive.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindTable)-1)
	for k := KindAny; int(k) < len(kindTable); k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) info() kindInfo {
	if int(k) >= len(kindTable) {
		return kindTable[KindUnknown]
	}
	return kindTable[k]
}

// String returns the kind name.
func (k Kind) String() string {
	return k.info().name
}

// IsNumeric reports whether values of the kind are numbers.
func (k Kind) IsNumeric() bool {
	return k.info().numeric
}

// Check validates value against the kind. Values may be given in their
// lexical string form or as native Go values.
func (k Kind) Check(value any) error {
	if value == nil {
		return nil
	}
	if err := k.info().check(value); err != nil {
		return fmt.Errorf("%s value %v: %w", k, value, err)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
