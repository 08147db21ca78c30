package errors

// Convenience constructors for common error patterns

// Config errors

func ConfigNotFound(path string) *BlogError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *BlogError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *BlogError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Theme errors

func ThemeNotFound(path string) *BlogError {
	return New(CategoryTheme, SeverityFatal, "theme directory not found").
		WithContext("path", path)
}

func ThemeInvalid(reason string) *BlogError {
	return New(CategoryTheme, SeverityFatal, "theme structure invalid").
		WithContext("reason", reason)
}

func TemplateNotConfigured(name string) *BlogError {
	return New(CategoryTheme, SeverityError, "template not configured in theme").
		WithContext("template", name)
}

// Content errors

func ParseFailed(file string, cause error) *BlogError {
	return Wrap(cause, CategoryParse, SeverityError, "failed to parse post").
		WithContext("file", file)
}

func MissingField(file, field string) *BlogError {
	return New(CategoryParse, SeverityError, "post is missing a required frontmatter field").
		WithContext("file", file).
		WithContext("field", field)
}

// Build pipeline errors

func RenderFailed(template string, cause error) *BlogError {
	return Wrap(cause, CategoryRender, SeverityFatal, "template render failed").
		WithContext("template", template)
}

func GenerationFailed(stage string, cause error) *BlogError {
	return Wrap(cause, CategoryGeneration, SeverityFatal, "site generation failed").
		WithContext("stage", stage)
}

func WriteFailed(path string, cause error) *BlogError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "failed to write output file").
		WithContext("path", path)
}
