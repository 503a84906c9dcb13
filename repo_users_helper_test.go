package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapConstraintViolation(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapConstraintViolation(nil))

	// sqlite wording for a delete blocked by referencing rows
	err := mapConstraintViolation(errors.New("FOREIGN KEY constraint failed"))
	assert.ErrorIs(t, err, ErrIntegrityViolation)

	err = mapConstraintViolation(errors.New("UNIQUE constraint failed: users.email"))
	assert.ErrorIs(t, err, ErrIntegrityViolation)

	// postgres wording
	err = mapConstraintViolation(errors.New(`update or delete on table "categories" violates foreign key constraint "product_categories_category_id_fkey"`))
	assert.ErrorIs(t, err, ErrIntegrityViolation)

	unrelated := errors.New("driver: bad connection")
	assert.Equal(t, unrelated, mapConstraintViolation(unrelated))
}

// a blocked category delete must surface as the conflict the transport layer
// maps to 409
func TestConstraintViolationMapsToConflict(t *testing.T) {
	t.Parallel()

	err := mapConstraintViolation(errors.New("FOREIGN KEY constraint failed"))
	assert.Equal(t, 409, StatusForError(err))
}
