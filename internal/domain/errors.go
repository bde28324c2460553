package domain

import "errors"

var (
	// ErrRowNotFound is returned when a working-set edit targets a SKU
	// that is not in the set.
	ErrRowNotFound = errors.New("Item not found")

	// ErrEmptyWorkingSet is returned when an export is attempted on an
	// empty working set.
	ErrEmptyWorkingSet = errors.New("working set is empty")

	// ErrMissingBrand is returned when an export finds no brand values
	// to name the artifact with.
	ErrMissingBrand = errors.New("working set has no brand values")

	// ErrNoStaffConfig marks a recipient whose assigned staff owner has
	// no mail configuration on file.
	ErrNoStaffConfig = errors.New("no staff mail configuration")

	// ErrEmptyOrder is returned when an order submission carries no
	// lines.
	ErrEmptyOrder = errors.New("order has no lines")

	// ErrInsufficientStock is returned when an order asks for more than
	// is available.
	ErrInsufficientStock = errors.New("not enough stock available")

	// ErrOrderNotFound is returned for lookups of unknown order ids.
	ErrOrderNotFound = errors.New("order not found")

	// ErrCustomerNotFound is returned for lookups of unknown customer ids.
	ErrCustomerNotFound = errors.New("customer not found")
)

// FieldErrors reports per-field validation failures, keyed by field name.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	for field, msg := range fe {
		return field + ": " + msg
	}
	return "validation failed"
}
