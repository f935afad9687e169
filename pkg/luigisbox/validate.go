package luigisbox

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
)

var errEmptyBatch = errors.New("batch must contain at least one item")

// Validate checks a full content object: URL and type are mandatory, nested
// objects are checked recursively.
func (c ContentItem) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Type, validation.Required),
		validation.Field(&c.Nested),
	)
}

// Validate checks a removal target.
func (r RemovalItem) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required),
	)
}

// Validate checks an update-by-query definition.
func (q UpdateByQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Types, validation.Required, validation.Each(validation.Required)),
		validation.Field(&q.SearchFields, validation.Required),
		validation.Field(&q.UpdateFields, validation.Required),
	)
}

// validatePartial only requires the URL: partial updates may omit the type
// and carry any subset of fields.
func validatePartial(c ContentItem) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required),
	)
}

func validateBatch[T any](items []T, check func(T) error, urlOf func(T) string) error {
	if len(items) == 0 {
		return errEmptyBatch
	}
	var result *multierror.Error
	for i, item := range items {
		if err := check(item); err != nil {
			result = multierror.Append(result, fmt.Errorf("item %d (%q): %w", i, urlOf(item), err))
		}
	}
	return result.ErrorOrNil()
}

func checkLimit(op string, limit, actual int) error {
	if limit > 0 && actual > limit {
		return &TooManyItemsError{Op: op, Limit: limit, Actual: actual}
	}
	return nil
}
