package jsconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Patch is a serializable partial configuration. Nil fields are left alone so
// a patch applied inside a scope inherits everything it does not name.
// Enumerations are carried by name and excluded types by the name a
// TypeFinder resolves.
type Patch struct {
	ConvertObjectTypesIntoStringDictionary *bool    `json:"convert_object_types_into_string_dictionary,omitempty" yaml:"convert_object_types_into_string_dictionary,omitempty" mapstructure:"convert_object_types_into_string_dictionary" msgpack:"convert_object_types_into_string_dictionary,omitempty" cbor:"convert_object_types_into_string_dictionary,omitempty"`
	TryToParsePrimitiveTypeValues          *bool    `json:"try_to_parse_primitive_type_values,omitempty" yaml:"try_to_parse_primitive_type_values,omitempty" mapstructure:"try_to_parse_primitive_type_values" msgpack:"try_to_parse_primitive_type_values,omitempty" cbor:"try_to_parse_primitive_type_values,omitempty"`
	TryToParseNumericType                  *bool    `json:"try_to_parse_numeric_type,omitempty" yaml:"try_to_parse_numeric_type,omitempty" mapstructure:"try_to_parse_numeric_type" msgpack:"try_to_parse_numeric_type,omitempty" cbor:"try_to_parse_numeric_type,omitempty"`
	TryParseIntoBestFit                    *bool    `json:"try_parse_into_best_fit,omitempty" yaml:"try_parse_into_best_fit,omitempty" mapstructure:"try_parse_into_best_fit" msgpack:"try_parse_into_best_fit,omitempty" cbor:"try_parse_into_best_fit,omitempty"`
	ParsePrimitiveFloatingPointTypes       *string  `json:"parse_primitive_floating_point_types,omitempty" yaml:"parse_primitive_floating_point_types,omitempty" mapstructure:"parse_primitive_floating_point_types" msgpack:"parse_primitive_floating_point_types,omitempty" cbor:"parse_primitive_floating_point_types,omitempty"`
	ParsePrimitiveIntegerTypes             *string  `json:"parse_primitive_integer_types,omitempty" yaml:"parse_primitive_integer_types,omitempty" mapstructure:"parse_primitive_integer_types" msgpack:"parse_primitive_integer_types,omitempty" cbor:"parse_primitive_integer_types,omitempty"`
	ExcludeDefaultValues                   *bool    `json:"exclude_default_values,omitempty" yaml:"exclude_default_values,omitempty" mapstructure:"exclude_default_values" msgpack:"exclude_default_values,omitempty" cbor:"exclude_default_values,omitempty"`
	ExcludePropertyReferences              []string `json:"exclude_property_references,omitempty" yaml:"exclude_property_references,omitempty" mapstructure:"exclude_property_references" msgpack:"exclude_property_references,omitempty" cbor:"exclude_property_references,omitempty"`
	IncludeNullValues                      *bool    `json:"include_null_values,omitempty" yaml:"include_null_values,omitempty" mapstructure:"include_null_values" msgpack:"include_null_values,omitempty" cbor:"include_null_values,omitempty"`
	IncludeNullValuesInDictionaries        *bool    `json:"include_null_values_in_dictionaries,omitempty" yaml:"include_null_values_in_dictionaries,omitempty" mapstructure:"include_null_values_in_dictionaries" msgpack:"include_null_values_in_dictionaries,omitempty" cbor:"include_null_values_in_dictionaries,omitempty"`
	IncludeDefaultEnums                    *bool    `json:"include_default_enums,omitempty" yaml:"include_default_enums,omitempty" mapstructure:"include_default_enums" msgpack:"include_default_enums,omitempty" cbor:"include_default_enums,omitempty"`
	TreatEnumAsInteger                     *bool    `json:"treat_enum_as_integer,omitempty" yaml:"treat_enum_as_integer,omitempty" mapstructure:"treat_enum_as_integer" msgpack:"treat_enum_as_integer,omitempty" cbor:"treat_enum_as_integer,omitempty"`
	ExcludeTypeInfo                        *bool    `json:"exclude_type_info,omitempty" yaml:"exclude_type_info,omitempty" mapstructure:"exclude_type_info" msgpack:"exclude_type_info,omitempty" cbor:"exclude_type_info,omitempty"`
	IncludeTypeInfo                        *bool    `json:"include_type_info,omitempty" yaml:"include_type_info,omitempty" mapstructure:"include_type_info" msgpack:"include_type_info,omitempty" cbor:"include_type_info,omitempty"`
	TypeAttr                               *string  `json:"type_attr,omitempty" yaml:"type_attr,omitempty" mapstructure:"type_attr" msgpack:"type_attr,omitempty" cbor:"type_attr,omitempty"`
	DateTimeFormat                         *string  `json:"date_time_format,omitempty" yaml:"date_time_format,omitempty" mapstructure:"date_time_format" msgpack:"date_time_format,omitempty" cbor:"date_time_format,omitempty"`
	DateHandler                            *string  `json:"date_handler,omitempty" yaml:"date_handler,omitempty" mapstructure:"date_handler" msgpack:"date_handler,omitempty" cbor:"date_handler,omitempty"`
	TimeSpanHandler                        *string  `json:"time_span_handler,omitempty" yaml:"time_span_handler,omitempty" mapstructure:"time_span_handler" msgpack:"time_span_handler,omitempty" cbor:"time_span_handler,omitempty"`
	SkipDateTimeConversion                 *bool    `json:"skip_date_time_conversion,omitempty" yaml:"skip_date_time_conversion,omitempty" mapstructure:"skip_date_time_conversion" msgpack:"skip_date_time_conversion,omitempty" cbor:"skip_date_time_conversion,omitempty"`
	AlwaysUseUTC                           *bool    `json:"always_use_utc,omitempty" yaml:"always_use_utc,omitempty" mapstructure:"always_use_utc" msgpack:"always_use_utc,omitempty" cbor:"always_use_utc,omitempty"`
	AssumeUTC                              *bool    `json:"assume_utc,omitempty" yaml:"assume_utc,omitempty" mapstructure:"assume_utc" msgpack:"assume_utc,omitempty" cbor:"assume_utc,omitempty"`
	AppendUTCOffset                        *bool    `json:"append_utc_offset,omitempty" yaml:"append_utc_offset,omitempty" mapstructure:"append_utc_offset" msgpack:"append_utc_offset,omitempty" cbor:"append_utc_offset,omitempty"`
	TextCase                               *string  `json:"text_case,omitempty" yaml:"text_case,omitempty" mapstructure:"text_case" msgpack:"text_case,omitempty" cbor:"text_case,omitempty"`
	PropertyConvention                     *string  `json:"property_convention,omitempty" yaml:"property_convention,omitempty" mapstructure:"property_convention" msgpack:"property_convention,omitempty" cbor:"property_convention,omitempty"`
	ThrowOnError                           *bool    `json:"throw_on_error,omitempty" yaml:"throw_on_error,omitempty" mapstructure:"throw_on_error" msgpack:"throw_on_error,omitempty" cbor:"throw_on_error,omitempty"`
	EscapeUnicode                          *bool    `json:"escape_unicode,omitempty" yaml:"escape_unicode,omitempty" mapstructure:"escape_unicode" msgpack:"escape_unicode,omitempty" cbor:"escape_unicode,omitempty"`
	EscapeHTMLChars                        *bool    `json:"escape_html_chars,omitempty" yaml:"escape_html_chars,omitempty" mapstructure:"escape_html_chars" msgpack:"escape_html_chars,omitempty" cbor:"escape_html_chars,omitempty"`
	PreferInterfaces                       *bool    `json:"prefer_interfaces,omitempty" yaml:"prefer_interfaces,omitempty" mapstructure:"prefer_interfaces" msgpack:"prefer_interfaces,omitempty" cbor:"prefer_interfaces,omitempty"`
	IncludePublicFields                    *bool    `json:"include_public_fields,omitempty" yaml:"include_public_fields,omitempty" mapstructure:"include_public_fields" msgpack:"include_public_fields,omitempty" cbor:"include_public_fields,omitempty"`
	MaxDepth                               *int     `json:"max_depth,omitempty" yaml:"max_depth,omitempty" mapstructure:"max_depth" msgpack:"max_depth,omitempty" cbor:"max_depth,omitempty"`
	ExcludeTypes                           []string `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" mapstructure:"exclude_types" msgpack:"exclude_types,omitempty" cbor:"exclude_types,omitempty"`
}

// PatchFrom captures every serializable option of s.
func PatchFrom(s *Snapshot) Patch {
	if s == nil {
		s = Defaults()
	}
	return Patch{
		ConvertObjectTypesIntoStringDictionary: ptr(s.ConvertObjectTypesIntoStringDictionary),
		TryToParsePrimitiveTypeValues:          ptr(s.TryToParsePrimitiveTypeValues),
		TryToParseNumericType:                  ptr(s.TryToParseNumericType),
		TryParseIntoBestFit:                    ptr(s.TryParseIntoBestFit),
		ParsePrimitiveFloatingPointTypes:       ptr(s.ParsePrimitiveFloatingPointTypes.String()),
		ParsePrimitiveIntegerTypes:             ptr(s.ParsePrimitiveIntegerTypes.String()),
		ExcludeDefaultValues:                   ptr(s.ExcludeDefaultValues),
		ExcludePropertyReferences:              cloneStrings(s.ExcludePropertyReferences),
		IncludeNullValues:                      ptr(s.IncludeNullValues),
		IncludeNullValuesInDictionaries:        ptr(s.IncludeNullValuesInDictionaries),
		IncludeDefaultEnums:                    ptr(s.IncludeDefaultEnums),
		TreatEnumAsInteger:                     ptr(s.TreatEnumAsInteger),
		ExcludeTypeInfo:                        ptr(s.ExcludeTypeInfo),
		IncludeTypeInfo:                        ptr(s.IncludeTypeInfo),
		TypeAttr:                               ptr(s.TypeAttr),
		DateTimeFormat:                         ptr(s.DateTimeFormat),
		DateHandler:                            ptr(s.DateHandler.String()),
		TimeSpanHandler:                        ptr(s.TimeSpanHandler.String()),
		SkipDateTimeConversion:                 ptr(s.SkipDateTimeConversion),
		AlwaysUseUTC:                           ptr(s.AlwaysUseUTC),
		AssumeUTC:                              ptr(s.AssumeUTC),
		AppendUTCOffset:                        ptr(s.AppendUTCOffset),
		TextCase:                               ptr(s.TextCase.String()),
		PropertyConvention:                     ptr(s.PropertyConvention.String()),
		ThrowOnError:                           ptr(s.ThrowOnError),
		EscapeUnicode:                          ptr(s.EscapeUnicode),
		EscapeHTMLChars:                        ptr(s.EscapeHTMLChars),
		PreferInterfaces:                       ptr(s.PreferInterfaces),
		IncludePublicFields:                    ptr(s.IncludePublicFields),
		MaxDepth:                               ptr(s.MaxDepth),
		ExcludeTypes:                           s.ExcludeTypes.Names(s.TypeWriter),
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return reflect.ValueOf(p).IsZero()
}

// Validate checks enumeration names without a snapshot. Excluded type names
// are resolved on Apply because they depend on the TypeFinder in effect.
func (p Patch) Validate() error {
	var errs []error
	check := func(value *string, parse func(string) error) {
		if value != nil {
			if err := parse(*value); err != nil {
				errs = append(errs, err)
			}
		}
	}
	check(p.ParsePrimitiveFloatingPointTypes, func(v string) error { _, err := ParseParseAsType(v); return err })
	check(p.ParsePrimitiveIntegerTypes, func(v string) error { _, err := ParseParseAsType(v); return err })
	check(p.DateHandler, func(v string) error { _, err := ParseDateHandler(v); return err })
	check(p.TimeSpanHandler, func(v string) error { _, err := ParseTimeSpanHandler(v); return err })
	check(p.TextCase, func(v string) error { _, err := ParseTextCase(v); return err })
	check(p.PropertyConvention, func(v string) error { _, err := ParsePropertyConvention(v); return err })
	if p.MaxDepth != nil && *p.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("jsconfig: max_depth must not be negative, got %d", *p.MaxDepth))
	}
	return errors.Join(errs...)
}

// Apply writes every set field onto s. Nothing is written when an error is
// returned.
func (p Patch) Apply(s *Snapshot) error {
	override, err := p.Override()
	if err != nil {
		return err
	}
	applyOverrides(s, []Override{override})
	return nil
}

// Override converts the patch for BeginScope. Unknown enumeration names fail
// here. Excluded type names the snapshot's TypeFinder cannot resolve are
// skipped; check them first with ResolveTypes.
func (p Patch) Override() (Override, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var overrides []Override
	setBool := func(value *bool, with func(bool) Override) {
		if value != nil {
			overrides = append(overrides, with(*value))
		}
	}
	setBool(p.ConvertObjectTypesIntoStringDictionary, WithConvertObjectTypesIntoStringDictionary)
	setBool(p.TryToParsePrimitiveTypeValues, WithTryToParsePrimitiveTypeValues)
	setBool(p.TryToParseNumericType, WithTryToParseNumericType)
	setBool(p.TryParseIntoBestFit, WithTryParseIntoBestFit)
	setBool(p.ExcludeDefaultValues, WithExcludeDefaultValues)
	setBool(p.IncludeNullValues, WithIncludeNullValues)
	setBool(p.IncludeNullValuesInDictionaries, WithIncludeNullValuesInDictionaries)
	setBool(p.IncludeDefaultEnums, WithIncludeDefaultEnums)
	setBool(p.TreatEnumAsInteger, WithTreatEnumAsInteger)
	setBool(p.ExcludeTypeInfo, WithExcludeTypeInfo)
	setBool(p.IncludeTypeInfo, WithIncludeTypeInfo)
	setBool(p.SkipDateTimeConversion, WithSkipDateTimeConversion)
	setBool(p.AlwaysUseUTC, WithAlwaysUseUTC)
	setBool(p.AssumeUTC, WithAssumeUTC)
	setBool(p.AppendUTCOffset, WithAppendUTCOffset)
	setBool(p.ThrowOnError, WithThrowOnError)
	setBool(p.EscapeUnicode, WithEscapeUnicode)
	setBool(p.EscapeHTMLChars, WithEscapeHTMLChars)
	setBool(p.PreferInterfaces, WithPreferInterfaces)
	setBool(p.IncludePublicFields, WithIncludePublicFields)

	if p.ParsePrimitiveFloatingPointTypes != nil {
		v, _ := ParseParseAsType(*p.ParsePrimitiveFloatingPointTypes)
		overrides = append(overrides, WithParsePrimitiveFloatingPointTypes(v))
	}
	if p.ParsePrimitiveIntegerTypes != nil {
		v, _ := ParseParseAsType(*p.ParsePrimitiveIntegerTypes)
		overrides = append(overrides, WithParsePrimitiveIntegerTypes(v))
	}
	if p.DateHandler != nil {
		v, _ := ParseDateHandler(*p.DateHandler)
		overrides = append(overrides, WithDateHandler(v))
	}
	if p.TimeSpanHandler != nil {
		v, _ := ParseTimeSpanHandler(*p.TimeSpanHandler)
		overrides = append(overrides, WithTimeSpanHandler(v))
	}
	if p.TextCase != nil {
		v, _ := ParseTextCase(*p.TextCase)
		overrides = append(overrides, WithTextCase(v))
	}
	if p.PropertyConvention != nil {
		v, _ := ParsePropertyConvention(*p.PropertyConvention)
		overrides = append(overrides, WithPropertyConvention(v))
	}
	if p.TypeAttr != nil {
		overrides = append(overrides, WithTypeAttr(*p.TypeAttr))
	}
	if p.DateTimeFormat != nil {
		overrides = append(overrides, WithDateTimeFormat(*p.DateTimeFormat))
	}
	if p.MaxDepth != nil {
		overrides = append(overrides, WithMaxDepth(*p.MaxDepth))
	}
	if p.ExcludePropertyReferences != nil {
		overrides = append(overrides, WithExcludePropertyReferences(p.ExcludePropertyReferences...))
	}
	if p.ExcludeTypes != nil {
		names := cloneStrings(p.ExcludeTypes)
		overrides = append(overrides, func(s *Snapshot) {
			s.ExcludeTypes = resolveTypeSet(s, names)
		})
	}

	return func(s *Snapshot) {
		applyOverrides(s, overrides)
	}, nil
}

// ResolveTypes checks that every excluded type name resolves through the
// TypeFinder of s (DefaultTypeFinder when s is nil).
func (p Patch) ResolveTypes(s *Snapshot) error {
	finder := DefaultTypeFinder
	if s != nil && s.TypeFinder != nil {
		finder = s.TypeFinder
	}
	var errs []error
	for _, name := range p.ExcludeTypes {
		if finder(name) == nil {
			errs = append(errs, fmt.Errorf("jsconfig: unknown type %q", name))
		}
	}
	return errors.Join(errs...)
}

func resolveTypeSet(s *Snapshot, names []string) TypeSet {
	finder := s.TypeFinder
	if finder == nil {
		finder = DefaultTypeFinder
	}
	set := NewTypeSet()
	for _, name := range names {
		if t := finder(name); t != nil {
			set[t] = struct{}{}
		}
	}
	return set
}

// PatchKeys lists the serialized names of every Patch field, in declaration
// order.
func PatchKeys() []string {
	t := reflect.TypeOf(Patch{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			keys = append(keys, name)
		}
	}
	return keys
}

// PatchEnums maps each enumerated option to the names it accepts.
func PatchEnums() map[string][]string {
	return map[string][]string{
		"date_handler":        cloneStrings(dateHandlerNames),
		"time_span_handler":   cloneStrings(timeSpanHandlerNames),
		"text_case":           cloneStrings(textCaseNames),
		"property_convention": cloneStrings(propertyConventionNames),
	}
}

// ParseAsNames lists the kinds accepted by ParseParseAsType, including the
// "integers" alias and "none".
func ParseAsNames() []string {
	return append([]string{"none", "integers"}, parseAsNames...)
}

func ptr[T any](v T) *T {
	return &v
}
