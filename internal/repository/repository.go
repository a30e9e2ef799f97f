// Package repository defines data access interfaces using SQL queries only.
// No business logic here — strictly persistence operations. Implementations
// return sql.ErrNoRows for missing rows and apperr.ConstraintViolation for
// unique-constraint failures; services own the mapping to user-facing errors.
package repository

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
