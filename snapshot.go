package jsconfig

import (
	"github.com/goliatone/go-jsconfig/platform"
)

const (
	// DefaultMaxDepth bounds object graph traversal.
	DefaultMaxDepth = 50
	// DefaultTypeAttr is the property name carrying type discriminators.
	DefaultTypeAttr = "__type"
)

// Snapshot is the full set of options visible to encoders and decoders. A
// snapshot that has become the effective configuration of a scope or of the
// process must be treated as read-only; derive a new one with Clone.
type Snapshot struct {
	ConvertObjectTypesIntoStringDictionary bool
	TryToParsePrimitiveTypeValues          bool
	TryToParseNumericType                  bool
	TryParseIntoBestFit                    bool
	ParsePrimitiveFloatingPointTypes       ParseAsType
	ParsePrimitiveIntegerTypes             ParseAsType

	ExcludeDefaultValues            bool
	ExcludePropertyReferences       []string
	IncludeNullValues               bool
	IncludeNullValuesInDictionaries bool
	IncludeDefaultEnums             bool
	TreatEnumAsInteger              bool

	ExcludeTypeInfo      bool
	IncludeTypeInfo      bool
	TypeAttr             string
	JSONTypeAttrInObject string
	JSVTypeAttrInObject  string

	DateTimeFormat         string
	DateHandler            DateHandler
	TimeSpanHandler        TimeSpanHandler
	SkipDateTimeConversion bool
	AlwaysUseUTC           bool
	AssumeUTC              bool
	AppendUTCOffset        bool

	TextCase           TextCase
	PropertyConvention PropertyConvention

	ThrowOnError        bool
	EscapeUnicode       bool
	EscapeHTMLChars     bool
	PreferInterfaces    bool
	IncludePublicFields bool
	MaxDepth            int

	// Strategies are aliased on copy.
	TypeWriter             TypeWriterFunc
	TypeFinder             TypeFinderFunc
	ParsePrimitiveFn       ParsePrimitiveFunc
	OnDeserializationError DeserializationErrorFunc
	ModelFactory           ModelFactoryFunc

	ExcludeTypes TypeSet
}

// Defaults returns a snapshot holding the documented default of every option.
// ThrowOnError follows the strict mode reported by platform.Current.
func Defaults() *Snapshot {
	return defaultsFor(platform.Current().StrictMode)
}

func defaultsFor(strict bool) *Snapshot {
	return &Snapshot{
		ParsePrimitiveFloatingPointTypes: ParseAsDecimal,
		ParsePrimitiveIntegerTypes:       ParseAsIntegers,
		IncludeDefaultEnums:              true,
		TypeAttr:                         DefaultTypeAttr,
		JSONTypeAttrInObject:             jsonTypeAttrInObject(DefaultTypeAttr),
		JSVTypeAttrInObject:              jsvTypeAttrInObject(DefaultTypeAttr),
		DateHandler:                      DateHandlerTimestampOffset,
		TimeSpanHandler:                  TimeSpanDurationFormat,
		TextCase:                         TextCaseDefault,
		PropertyConvention:               PropertyConventionStrict,
		ThrowOnError:                     strict,
		MaxDepth:                         DefaultMaxDepth,
		TypeWriter:                       DefaultTypeWriter,
		TypeFinder:                       DefaultTypeFinder,
		ModelFactory:                     DefaultModelFactory,
		ExcludeTypes:                     NewTypeSet(readerType),
	}
}

// Copy returns an independent copy of source. A nil source yields Defaults().
func Copy(source *Snapshot) *Snapshot {
	if source == nil {
		return Defaults()
	}
	return new(Snapshot).Populate(source)
}

// Clone is shorthand for Copy(s).
func (s *Snapshot) Clone() *Snapshot {
	return Copy(s)
}

// Populate overwrites every field of s from source and returns s. Slices and
// the excluded type set are duplicated so s never shares them with source.
func (s *Snapshot) Populate(source *Snapshot) *Snapshot {
	if source == nil {
		return s
	}
	s.ConvertObjectTypesIntoStringDictionary = source.ConvertObjectTypesIntoStringDictionary
	s.TryToParsePrimitiveTypeValues = source.TryToParsePrimitiveTypeValues
	s.TryToParseNumericType = source.TryToParseNumericType
	s.TryParseIntoBestFit = source.TryParseIntoBestFit
	s.ParsePrimitiveFloatingPointTypes = source.ParsePrimitiveFloatingPointTypes
	s.ParsePrimitiveIntegerTypes = source.ParsePrimitiveIntegerTypes

	s.ExcludeDefaultValues = source.ExcludeDefaultValues
	s.ExcludePropertyReferences = cloneStrings(source.ExcludePropertyReferences)
	s.IncludeNullValues = source.IncludeNullValues
	s.IncludeNullValuesInDictionaries = source.IncludeNullValuesInDictionaries
	s.IncludeDefaultEnums = source.IncludeDefaultEnums
	s.TreatEnumAsInteger = source.TreatEnumAsInteger

	s.ExcludeTypeInfo = source.ExcludeTypeInfo
	s.IncludeTypeInfo = source.IncludeTypeInfo
	s.TypeAttr = source.TypeAttr
	s.JSONTypeAttrInObject = source.JSONTypeAttrInObject
	s.JSVTypeAttrInObject = source.JSVTypeAttrInObject

	s.DateTimeFormat = source.DateTimeFormat
	s.DateHandler = source.DateHandler
	s.TimeSpanHandler = source.TimeSpanHandler
	s.SkipDateTimeConversion = source.SkipDateTimeConversion
	s.AlwaysUseUTC = source.AlwaysUseUTC
	s.AssumeUTC = source.AssumeUTC
	s.AppendUTCOffset = source.AppendUTCOffset

	s.TextCase = source.TextCase
	s.PropertyConvention = source.PropertyConvention

	s.ThrowOnError = source.ThrowOnError
	s.EscapeUnicode = source.EscapeUnicode
	s.EscapeHTMLChars = source.EscapeHTMLChars
	s.PreferInterfaces = source.PreferInterfaces
	s.IncludePublicFields = source.IncludePublicFields
	s.MaxDepth = source.MaxDepth

	s.TypeWriter = source.TypeWriter
	s.TypeFinder = source.TypeFinder
	s.ParsePrimitiveFn = source.ParsePrimitiveFn
	s.OnDeserializationError = source.OnDeserializationError
	s.ModelFactory = source.ModelFactory

	s.ExcludeTypes = source.ExcludeTypes.Clone()
	return s
}

// Values flattens the serializable options into a map keyed by the same
// snake_case names Patch uses. Strategy fields are omitted.
func (s *Snapshot) Values() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any{
		"convert_object_types_into_string_dictionary": s.ConvertObjectTypesIntoStringDictionary,
		"try_to_parse_primitive_type_values":          s.TryToParsePrimitiveTypeValues,
		"try_to_parse_numeric_type":                   s.TryToParseNumericType,
		"try_parse_into_best_fit":                     s.TryParseIntoBestFit,
		"parse_primitive_floating_point_types":        s.ParsePrimitiveFloatingPointTypes.String(),
		"parse_primitive_integer_types":               s.ParsePrimitiveIntegerTypes.String(),
		"exclude_default_values":                      s.ExcludeDefaultValues,
		"exclude_property_references":                 cloneStrings(s.ExcludePropertyReferences),
		"include_null_values":                         s.IncludeNullValues,
		"include_null_values_in_dictionaries":         s.IncludeNullValuesInDictionaries,
		"include_default_enums":                       s.IncludeDefaultEnums,
		"treat_enum_as_integer":                       s.TreatEnumAsInteger,
		"exclude_type_info":                           s.ExcludeTypeInfo,
		"include_type_info":                           s.IncludeTypeInfo,
		"type_attr":                                   s.TypeAttr,
		"date_time_format":                            s.DateTimeFormat,
		"date_handler":                                s.DateHandler.String(),
		"time_span_handler":                           s.TimeSpanHandler.String(),
		"skip_date_time_conversion":                   s.SkipDateTimeConversion,
		"always_use_utc":                              s.AlwaysUseUTC,
		"assume_utc":                                  s.AssumeUTC,
		"append_utc_offset":                           s.AppendUTCOffset,
		"text_case":                                   s.TextCase.String(),
		"property_convention":                         s.PropertyConvention.String(),
		"throw_on_error":                              s.ThrowOnError,
		"escape_unicode":                              s.EscapeUnicode,
		"escape_html_chars":                           s.EscapeHTMLChars,
		"prefer_interfaces":                           s.PreferInterfaces,
		"include_public_fields":                       s.IncludePublicFields,
		"max_depth":                                   s.MaxDepth,
		"exclude_types":                               s.ExcludeTypes.Names(s.TypeWriter),
	}
}

func jsonTypeAttrInObject(attr string) string {
	return "{\"" + attr + "\":\""
}

func jsvTypeAttrInObject(attr string) string {
	return "{" + attr + ":"
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
