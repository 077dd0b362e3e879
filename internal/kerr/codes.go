// Package kerr provides structured error handling for KnowledgeScout.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 2XX: storage and I/O errors
//   - 4XX: validation, authentication, and access errors
//   - 5XX: internal errors
package kerr

// Category defines error categories for classification.
type Category string

const (
	// CategoryStorage indicates database and file I/O errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryAccess indicates authentication and visibility errors.
	CategoryAccess Category = "ACCESS"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Storage errors (200-299)
	CodeStorage      = "ERR_201_STORAGE"
	CodeFileTooLarge = "ERR_202_FILE_TOO_LARGE"

	// Validation errors (400-449)
	CodeInvalidInput = "ERR_401_INVALID_INPUT"
	CodeQueryEmpty   = "ERR_402_QUERY_EMPTY"

	// Access errors (450-499)
	CodeNotFound           = "ERR_451_NOT_FOUND"
	CodeAccessDenied       = "ERR_452_ACCESS_DENIED"
	CodeAuthRequired       = "ERR_453_AUTH_REQUIRED"
	CodeDuplicateUser      = "ERR_454_DUPLICATE_USER"
	CodeInvalidCredentials = "ERR_455_INVALID_CREDENTIALS"

	// Internal errors (500-599)
	CodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '2':
		return CategoryStorage
	case '4':
		// 450+ are access errors, below that validation.
		if code[5] >= '5' {
			return CategoryAccess
		}
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
