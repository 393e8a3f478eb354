package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=20&bad=x&big=900", nil)

	v, err := ParseQueryInt(r, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	v, err = ParseQueryInt(r, "missing", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	_, err = ParseQueryInt(r, "bad", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(r, "big", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOptionalQueryParsers(t *testing.T) {
	r := httptest.NewRequest("GET", "/?store_id=8d3f1c2e-7b4a-4c59-9a1e-2f6d5b8c9a10&active=false&lat=6.79&bad_id=nope", nil)

	id, err := ParseQueryUUID(r, "store_id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "8d3f1c2e-7b4a-4c59-9a1e-2f6d5b8c9a10", id.String())

	absent, err := ParseQueryUUID(r, "town_id")
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, err = ParseQueryUUID(r, "bad_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	active, err := ParseQueryBool(r, "active")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)

	lat, err := ParseQueryFloat(r, "lat")
	require.NoError(t, err)
	assert.InDelta(t, 6.79, *lat, 1e-9)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "fresh tomatoes", SanitizeString("  fresh \t  tomatoes\n", 0))
	assert.Equal(t, "Hoh", SanitizeString("Hohoe", 3))
	assert.Equal(t, "Ɛwe", SanitizeString("Ɛwe market", 3))
	assert.Equal(t, "a", SanitizeString("a b", 2))
}
