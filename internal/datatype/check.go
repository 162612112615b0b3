package datatype

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/language"

	"github.com/jacoelho/dictionary/internal/qname"
)

// ErrInvalidValue reports a value that does not belong to a kind.
var ErrInvalidValue = errors.New("invalid value")

var nodeRefPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://[^/\s]+/\S+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

func checkUnknown(any) error {
	return invalid("unknown kind")
}

func checkAny(any) error {
	return nil
}

func checkText(value any) error {
	if _, ok := ToString(value); !ok {
		return invalid("not text")
	}
	return nil
}

func checkMLText(value any) error {
	if m, ok := value.(map[string]string); ok {
		for locale := range m {
			if err := checkLocale(locale); err != nil {
				return err
			}
		}
		return nil
	}
	return checkText(value)
}

func checkInteger(bits int) Checker {
	return func(value any) error {
		var n int64
		switch v := value.(type) {
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, bits)
			if err != nil {
				return invalid("not an integer of %d bits", bits)
			}
			return checkIntegerRange(parsed, bits)
		case int:
			n = int64(v)
		case int8:
			n = int64(v)
		case int16:
			n = int64(v)
		case int32:
			n = int64(v)
		case int64:
			n = v
		case uint8:
			n = int64(v)
		case uint16:
			n = int64(v)
		case uint32:
			n = int64(v)
		case uint:
			if uint64(v) > math.MaxInt64 {
				return invalid("out of range for %d bits", bits)
			}
			n = int64(v)
		case uint64:
			if v > math.MaxInt64 {
				return invalid("out of range for %d bits", bits)
			}
			n = int64(v)
		case float32:
			return checkWholeFloat(float64(v), bits)
		case float64:
			return checkWholeFloat(v, bits)
		default:
			return invalid("not an integer")
		}
		return checkIntegerRange(n, bits)
	}
}

func checkWholeFloat(v float64, bits int) error {
	if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
		return invalid("not an integer")
	}
	return checkIntegerRange(int64(v), bits)
}

func checkIntegerRange(n int64, bits int) error {
	if bits == 32 && (n > math.MaxInt32 || n < math.MinInt32) {
		return invalid("out of range for %d bits", bits)
	}
	return nil
}

func checkFloat(bits int) Checker {
	return func(value any) error {
		switch v := value.(type) {
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), bits); err != nil {
				return invalid("not a %d bit float", bits)
			}
			return nil
		case float32:
			return nil
		case float64:
			if bits == 32 && !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
				return invalid("out of range for %d bits", bits)
			}
			return nil
		}
		if _, err := ToFloat(value); err != nil {
			return invalid("not a number")
		}
		return nil
	}
}

func checkDate(value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		s := strings.TrimSpace(v)
		if _, err := time.Parse(time.DateOnly, s); err == nil {
			return nil
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return nil
		}
		return invalid("not a date")
	}
	return invalid("not a date")
}

func checkDateTime(value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v)); err != nil {
			return invalid("not an RFC 3339 date time")
		}
		return nil
	}
	return invalid("not a date time")
}

func checkBoolean(value any) error {
	switch v := value.(type) {
	case bool:
		return nil
	case string:
		if _, err := strconv.ParseBool(strings.TrimSpace(v)); err != nil {
			return invalid("not a boolean")
		}
		return nil
	}
	return invalid("not a boolean")
}

// anyPrefix accepts every prefix so that prefixed names are checked for
// shape only.
type anyPrefix struct{}

func (anyPrefix) NamespaceURI(prefix string) (qname.NamespaceURI, bool) {
	return qname.NamespaceURI(prefix), true
}

func (anyPrefix) Prefix(qname.NamespaceURI) (string, bool) {
	return "", false
}

func checkQName(value any) error {
	switch v := value.(type) {
	case qname.QName:
		if v.IsZero() {
			return invalid("empty qname")
		}
		return nil
	case string:
		if _, err := qname.Parse(v, anyPrefix{}); err != nil {
			return invalid("%v", err)
		}
		return nil
	}
	return invalid("not a qname")
}

func checkNodeRef(value any) error {
	s, ok := value.(string)
	if !ok || !nodeRefPattern.MatchString(s) {
		return invalid("not a node reference")
	}
	return nil
}

// checkAssocRef accepts id|sourceRef|targetRef|assocType.
func checkAssocRef(value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid("not an association reference")
	}
	parts := strings.Split(s, "|")
	if len(parts) != 4 || parts[0] == "" {
		return invalid("association reference needs id|source|target|type")
	}
	if !nodeRefPattern.MatchString(parts[1]) || !nodeRefPattern.MatchString(parts[2]) {
		return invalid("association reference ends are not node references")
	}
	return checkQName(parts[3])
}

// checkChildAssocRef accepts assocType|parentRef|childName|childRef with
// optional trailing isPrimary and nthSibling fields.
func checkChildAssocRef(value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid("not a child association reference")
	}
	parts := strings.Split(s, "|")
	if len(parts) < 4 || len(parts) > 6 {
		return invalid("child association reference needs type|parent|name|child")
	}
	if err := checkQName(parts[0]); err != nil {
		return err
	}
	if parts[1] != "" && !nodeRefPattern.MatchString(parts[1]) {
		return invalid("parent is not a node reference")
	}
	if err := checkQName(parts[2]); err != nil {
		return err
	}
	if !nodeRefPattern.MatchString(parts[3]) {
		return invalid("child is not a node reference")
	}
	if len(parts) > 4 {
		if err := checkBoolean(parts[4]); err != nil {
			return err
		}
	}
	if len(parts) > 5 {
		if _, err := strconv.Atoi(parts[5]); err != nil {
			return invalid("nth sibling is not an integer")
		}
	}
	return nil
}

func checkPath(value any) error {
	s, ok := value.(string)
	if !ok || !strings.HasPrefix(s, "/") {
		return invalid("not an absolute path")
	}
	return nil
}

func checkLocale(value any) error {
	switch v := value.(type) {
	case language.Tag:
		return nil
	case string:
		if _, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(v), "_", "-")); err != nil {
			return invalid("not a locale: %v", err)
		}
		return nil
	}
	return invalid("not a locale")
}

func checkVersion(value any) error {
	switch v := value.(type) {
	case *semver.Version:
		return nil
	case string:
		if _, err := semver.NewVersion(strings.TrimSpace(v)); err != nil {
			return invalid("not a version: %v", err)
		}
		return nil
	}
	return invalid("not a version")
}

// checkPeriod accepts name or name|expression.
func checkPeriod(value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid("not a period")
	}
	name, _, _ := strings.Cut(s, "|")
	if name == "" {
		return invalid("period has no name")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_') {
			return invalid("period name %q", name)
		}
	}
	return nil
}

// ToString returns the text form of scalar values.
func ToString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

// ToFloat converts numeric values and numeric strings to float64.
func ToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, invalid("%q is not a number", v)
		}
		return f, nil
	}
	return 0, invalid("%v is not a number", value)
}
