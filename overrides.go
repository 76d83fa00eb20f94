package jsconfig

// Override changes one or more options on a snapshot that is being prepared
// for a scope. Fields an override does not touch keep the value of the
// enclosing configuration.
type Override func(*Snapshot)

func applyOverrides(s *Snapshot, overrides []Override) *Snapshot {
	for _, override := range overrides {
		if override != nil {
			override(s)
		}
	}
	return s
}

// With builds a copy of s with overrides applied. s itself is not modified.
func (s *Snapshot) With(overrides ...Override) *Snapshot {
	return applyOverrides(Copy(s), overrides)
}

// WithSnapshot replaces every option with those of source.
func WithSnapshot(source *Snapshot) Override {
	return func(s *Snapshot) {
		if source != nil {
			s.Populate(source)
		}
	}
}

func WithConvertObjectTypesIntoStringDictionary(v bool) Override {
	return func(s *Snapshot) { s.ConvertObjectTypesIntoStringDictionary = v }
}

func WithTryToParsePrimitiveTypeValues(v bool) Override {
	return func(s *Snapshot) { s.TryToParsePrimitiveTypeValues = v }
}

func WithTryToParseNumericType(v bool) Override {
	return func(s *Snapshot) { s.TryToParseNumericType = v }
}

func WithTryParseIntoBestFit(v bool) Override {
	return func(s *Snapshot) { s.TryParseIntoBestFit = v }
}

func WithParsePrimitiveFloatingPointTypes(v ParseAsType) Override {
	return func(s *Snapshot) { s.ParsePrimitiveFloatingPointTypes = v }
}

func WithParsePrimitiveIntegerTypes(v ParseAsType) Override {
	return func(s *Snapshot) { s.ParsePrimitiveIntegerTypes = v }
}

func WithExcludeDefaultValues(v bool) Override {
	return func(s *Snapshot) { s.ExcludeDefaultValues = v }
}

// WithExcludePropertyReferences copies refs ("Type.Property" entries).
func WithExcludePropertyReferences(refs ...string) Override {
	refs = cloneStrings(refs)
	return func(s *Snapshot) { s.ExcludePropertyReferences = cloneStrings(refs) }
}

func WithIncludeNullValues(v bool) Override {
	return func(s *Snapshot) { s.IncludeNullValues = v }
}

func WithIncludeNullValuesInDictionaries(v bool) Override {
	return func(s *Snapshot) { s.IncludeNullValuesInDictionaries = v }
}

func WithIncludeDefaultEnums(v bool) Override {
	return func(s *Snapshot) { s.IncludeDefaultEnums = v }
}

func WithTreatEnumAsInteger(v bool) Override {
	return func(s *Snapshot) { s.TreatEnumAsInteger = v }
}

func WithExcludeTypeInfo(v bool) Override {
	return func(s *Snapshot) { s.ExcludeTypeInfo = v }
}

func WithIncludeTypeInfo(v bool) Override {
	return func(s *Snapshot) { s.IncludeTypeInfo = v }
}

// WithTypeAttr sets the discriminator property and the JSON/JSV prefixes
// derived from it.
func WithTypeAttr(attr string) Override {
	return func(s *Snapshot) {
		s.TypeAttr = attr
		s.JSONTypeAttrInObject = jsonTypeAttrInObject(attr)
		s.JSVTypeAttrInObject = jsvTypeAttrInObject(attr)
	}
}

func WithDateTimeFormat(layout string) Override {
	return func(s *Snapshot) { s.DateTimeFormat = layout }
}

func WithDateHandler(v DateHandler) Override {
	return func(s *Snapshot) { s.DateHandler = v }
}

func WithTimeSpanHandler(v TimeSpanHandler) Override {
	return func(s *Snapshot) { s.TimeSpanHandler = v }
}

func WithSkipDateTimeConversion(v bool) Override {
	return func(s *Snapshot) { s.SkipDateTimeConversion = v }
}

func WithAlwaysUseUTC(v bool) Override {
	return func(s *Snapshot) { s.AlwaysUseUTC = v }
}

func WithAssumeUTC(v bool) Override {
	return func(s *Snapshot) { s.AssumeUTC = v }
}

func WithAppendUTCOffset(v bool) Override {
	return func(s *Snapshot) { s.AppendUTCOffset = v }
}

func WithTextCase(v TextCase) Override {
	return func(s *Snapshot) { s.TextCase = v }
}

func WithPropertyConvention(v PropertyConvention) Override {
	return func(s *Snapshot) { s.PropertyConvention = v }
}

func WithThrowOnError(v bool) Override {
	return func(s *Snapshot) { s.ThrowOnError = v }
}

func WithEscapeUnicode(v bool) Override {
	return func(s *Snapshot) { s.EscapeUnicode = v }
}

func WithEscapeHTMLChars(v bool) Override {
	return func(s *Snapshot) { s.EscapeHTMLChars = v }
}

func WithPreferInterfaces(v bool) Override {
	return func(s *Snapshot) { s.PreferInterfaces = v }
}

func WithIncludePublicFields(v bool) Override {
	return func(s *Snapshot) { s.IncludePublicFields = v }
}

// WithMaxDepth sets the traversal limit as given. Range checks belong to
// Patch.Validate, which rejects negative depths read from files or stores.
func WithMaxDepth(depth int) Override {
	return func(s *Snapshot) { s.MaxDepth = depth }
}

func WithTypeWriter(fn TypeWriterFunc) Override {
	return func(s *Snapshot) { s.TypeWriter = fn }
}

func WithTypeFinder(fn TypeFinderFunc) Override {
	return func(s *Snapshot) { s.TypeFinder = fn }
}

func WithParsePrimitiveFn(fn ParsePrimitiveFunc) Override {
	return func(s *Snapshot) { s.ParsePrimitiveFn = fn }
}

func WithOnDeserializationError(fn DeserializationErrorFunc) Override {
	return func(s *Snapshot) { s.OnDeserializationError = fn }
}

func WithModelFactory(fn ModelFactoryFunc) Override {
	return func(s *Snapshot) { s.ModelFactory = fn }
}

// WithExcludeTypes replaces the excluded type set with a copy of set.
func WithExcludeTypes(set TypeSet) Override {
	set = set.Clone()
	return func(s *Snapshot) { s.ExcludeTypes = set.Clone() }
}
