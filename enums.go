package jsconfig

import (
	"fmt"
	"strings"
)

// DateHandler selects how date/time values are written and read.
type DateHandler int

const (
	DateHandlerTimestampOffset DateHandler = iota
	DateHandlerDCJSCompatible
	DateHandlerISO8601
	DateHandlerISO8601DateOnly
	DateHandlerISO8601DateTime
	DateHandlerRFC1123
	DateHandlerUnixTime
	DateHandlerUnixTimeMs
)

var dateHandlerNames = []string{
	"timestamp_offset",
	"dcjs_compatible",
	"iso8601",
	"iso8601_date_only",
	"iso8601_date_time",
	"rfc1123",
	"unix_time",
	"unix_time_ms",
}

func (d DateHandler) String() string { return enumName(dateHandlerNames, int(d)) }

// ParseDateHandler converts a name such as "iso8601" into a DateHandler.
func ParseDateHandler(value string) (DateHandler, error) {
	i, err := parseEnum("date handler", dateHandlerNames, value)
	return DateHandler(i), err
}

// TimeSpanHandler selects how durations are written.
type TimeSpanHandler int

const (
	// TimeSpanDurationFormat writes ISO 8601 durations (PT1H2M).
	TimeSpanDurationFormat TimeSpanHandler = iota
	// TimeSpanStandardFormat writes clock style durations (01:02:00).
	TimeSpanStandardFormat
)

var timeSpanHandlerNames = []string{"duration_format", "standard_format"}

func (t TimeSpanHandler) String() string { return enumName(timeSpanHandlerNames, int(t)) }

// ParseTimeSpanHandler converts a name into a TimeSpanHandler.
func ParseTimeSpanHandler(value string) (TimeSpanHandler, error) {
	i, err := parseEnum("time span handler", timeSpanHandlerNames, value)
	return TimeSpanHandler(i), err
}

// TextCase is the naming convention applied to property names on output.
type TextCase int

const (
	TextCaseDefault TextCase = iota
	TextCasePascalCase
	TextCaseCamelCase
	TextCaseSnakeCase
)

var textCaseNames = []string{"default", "pascal_case", "camel_case", "snake_case"}

func (t TextCase) String() string { return enumName(textCaseNames, int(t)) }

// ParseTextCase converts a name into a TextCase.
func ParseTextCase(value string) (TextCase, error) {
	i, err := parseEnum("text case", textCaseNames, value)
	return TextCase(i), err
}

// PropertyConvention controls how incoming property names are matched.
type PropertyConvention int

const (
	// PropertyConventionStrict requires an exact (case-insensitive) match.
	PropertyConventionStrict PropertyConvention = iota
	// PropertyConventionLenient also matches names that differ by separators.
	PropertyConventionLenient
)

var propertyConventionNames = []string{"strict", "lenient"}

func (p PropertyConvention) String() string { return enumName(propertyConventionNames, int(p)) }

// ParsePropertyConvention converts a name into a PropertyConvention.
func ParsePropertyConvention(value string) (PropertyConvention, error) {
	i, err := parseEnum("property convention", propertyConventionNames, value)
	return PropertyConvention(i), err
}

// ParseAsType is a bit set of numeric kinds the primitive parser may produce.
type ParseAsType uint16

const ParseAsNone ParseAsType = 0

const (
	ParseAsBool ParseAsType = 1 << iota
	ParseAsByte
	ParseAsSByte
	ParseAsInt16
	ParseAsUInt16
	ParseAsInt32
	ParseAsUInt32
	ParseAsInt64
	ParseAsUInt64
	ParseAsDecimal
	ParseAsDouble
	ParseAsSingle
)

// ParseAsIntegers is every integer kind.
const ParseAsIntegers = ParseAsByte | ParseAsSByte | ParseAsInt16 | ParseAsUInt16 |
	ParseAsInt32 | ParseAsUInt32 | ParseAsInt64 | ParseAsUInt64

var parseAsNames = []string{
	"bool", "byte", "sbyte", "int16", "uint16", "int32",
	"uint32", "int64", "uint64", "decimal", "double", "single",
}

// Has reports whether every bit of kind is set.
func (p ParseAsType) Has(kind ParseAsType) bool {
	return p&kind == kind
}

// String renders the set as names joined by "|", or "none".
func (p ParseAsType) String() string {
	if p == ParseAsNone {
		return "none"
	}
	parts := make([]string, 0, len(parseAsNames))
	for i, name := range parseAsNames {
		if p&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseParseAsType accepts names separated by "|" or ",". The alias
// "integers" expands to every integer kind.
func ParseParseAsType(value string) (ParseAsType, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		return ParseAsNone, nil
	}
	var out ParseAsType
	for _, token := range strings.FieldsFunc(value, func(r rune) bool { return r == '|' || r == ',' }) {
		token = normalizeEnumName(token)
		if token == "" {
			continue
		}
		if token == "integers" {
			out |= ParseAsIntegers
			continue
		}
		i, err := parseEnum("parse-as type", parseAsNames, token)
		if err != nil {
			return ParseAsNone, err
		}
		out |= 1 << i
	}
	return out, nil
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func parseEnum(kind string, names []string, value string) (int, error) {
	normalized := normalizeEnumName(value)
	for i, name := range names {
		if name == normalized || strings.ReplaceAll(name, "_", "") == normalized {
			return i, nil
		}
	}
	return 0, fmt.Errorf("jsconfig: unknown %s %q", kind, value)
}

func normalizeEnumName(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(value, "-", "_")
}
