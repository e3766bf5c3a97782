package sqlite

// Test-only exports for the external sqlite_test package.
var (
	IsBusy            = isBusy
	IsUniqueViolation = isUniqueViolation
)
