package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"
	DevEnvironment  = "dev"
	TestEnvironment = "test"

	// Basis points in a whole (100%)
	BasisPointsTotal = 10000
)
