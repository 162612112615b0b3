package datatype

import (
	"errors"
	"math"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/jacoelho/dictionary/internal/qname"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v, want %v", k.String(), got, ok, k)
		}
	}
	if got, ok := ParseKind(" DateTime "); !ok || got != KindDateTime {
		t.Fatalf("ParseKind(DateTime) = %v, %v", got, ok)
	}
	if _, ok := ParseKind("unknown"); ok {
		t.Fatalf("ParseKind(unknown) should fail")
	}
	if _, ok := ParseKind("java.lang.String"); ok {
		t.Fatalf("ParseKind(java.lang.String) should fail")
	}
}

func TestKindIsNumeric(t *testing.T) {
	numeric := map[Kind]bool{KindInt: true, KindLong: true, KindFloat: true, KindDouble: true}
	for _, k := range Kinds() {
		if k.IsNumeric() != numeric[k] {
			t.Fatalf("%s.IsNumeric() = %v", k, k.IsNumeric())
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		kind  Kind
		value any
		ok    bool
	}{
		{KindText, "hello", true},
		{KindText, 42, true},
		{KindText, struct{}{}, false},
		{KindMLText, map[string]string{"en": "a", "fr_FR": "b"}, true},
		{KindMLText, map[string]string{"not a locale!": "a"}, false},
		{KindInt, "2147483647", true},
		{KindInt, "2147483648", false},
		{KindInt, int64(1 << 40), false},
		{KindInt, 1.5, false},
		{KindInt, uint(7), true},
		{KindInt, uint64(1 << 40), false},
		{KindInt, float32(12), true},
		{KindInt, float32(1.25), false},
		{KindLong, uint64(1 << 40), true},
		{KindLong, uint64(math.MaxUint64), false},
		{KindLong, float64(1 << 62), true},
		{KindLong, "9223372036854775807", true},
		{KindLong, "abc", false},
		{KindFloat, "1.5e3", true},
		{KindFloat, 3.4e39, false},
		{KindDouble, 7, true},
		{KindDouble, "x", false},
		{KindDate, "2024-02-29", true},
		{KindDate, "2024-02-30", false},
		{KindDate, time.Now(), true},
		{KindDateTime, "2024-02-29T10:00:00Z", true},
		{KindDateTime, "2024-02-29", false},
		{KindBoolean, "true", true},
		{KindBoolean, false, true},
		{KindBoolean, "yes", false},
		{KindQName, "cm:content", true},
		{KindQName, "{http://example.com}name", true},
		{KindQName, qname.New("u", "n"), true},
		{KindQName, "cm:", false},
		{KindNodeRef, "workspace://SpacesStore/abc-123", true},
		{KindNodeRef, "abc-123", false},
		{KindCategory, "workspace://SpacesStore/cat", true},
		{KindAssocRef, "7|workspace://SpacesStore/a|workspace://SpacesStore/b|cm:references", true},
		{KindAssocRef, "workspace://SpacesStore/a|workspace://SpacesStore/b", false},
		{KindChildAssocRef, "cm:contains|workspace://SpacesStore/a|cm:child|workspace://SpacesStore/b|true|0", true},
		{KindChildAssocRef, "cm:contains||cm:root|workspace://SpacesStore/b", true},
		{KindChildAssocRef, "cm:contains|a|cm:child|b", false},
		{KindPath, "/app:company_home", true},
		{KindPath, "relative", false},
		{KindLocale, "en_GB", true},
		{KindLocale, language.French, true},
		{KindLocale, "12345678901", false},
		{KindVersion, "1.2.3", true},
		{KindVersion, "one", false},
		{KindPeriod, "month|1", true},
		{KindPeriod, "none", true},
		{KindPeriod, "|1", false},
		{KindAny, struct{}{}, true},
		{KindEncrypted, []byte{1, 2}, true},
		{KindUnknown, "x", false},
	}
	for _, tt := range tests {
		err := tt.kind.Check(tt.value)
		if tt.ok && err != nil {
			t.Fatalf("%s.Check(%v) = %v, want nil", tt.kind, tt.value, err)
		}
		if !tt.ok {
			if err == nil {
				t.Fatalf("%s.Check(%v) = nil, want error", tt.kind, tt.value)
			}
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("%s.Check(%v) = %v, want ErrInvalidValue", tt.kind, tt.value, err)
			}
		}
	}
}

func TestCheckNil(t *testing.T) {
	if err := KindInt.Check(nil); err != nil {
		t.Fatalf("Check(nil) = %v, want nil", err)
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{int32(4), 4},
		{" 2.5 ", 2.5},
		{float32(0.5), 0.5},
		{uint64(9), 9},
	}
	for _, tt := range tests {
		got, err := ToFloat(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ToFloat(%v) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ToFloat(true); err == nil {
		t.Fatalf("ToFloat(true) should fail")
	}
}
