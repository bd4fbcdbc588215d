package container

// Framework registry keys. Keep project keys in a file like this one too, so
// renaming a type means editing one constant rather than every Get call.
const (
	KeyContainer     = "spf.Container"
	KeyApplication   = "spf.Application"
	KeyConfiguration = "spf.core.Configuration"
	KeyEnvironment   = "spf.core.Environment"
	KeyDatabase      = "spf.core.Database"
	KeyRouter        = "spf.core.Router"
	KeyMustache      = "spf.mustache.MustacheEngine"
	KeyLogger        = "spf.log.Logger"
)

// Reserved annotation names consumed by the container.
const (
	AnnotationManaged  = "DmManaged"
	AnnotationProvider = "DmProvider"
	AnnotationRequires = "DmRequires"
)
