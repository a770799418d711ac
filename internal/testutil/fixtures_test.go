package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"parcelgrid/internal/entity"
)

func TestFixtureBuilders(t *testing.T) {
	p := Property("prop-7", WithName("Maple Street 14"), WithAttr("price", 425000))

	require.Equal(t, "prop-7", p.ID)
	require.Equal(t, entity.TypeProperty, p.Type)
	require.Equal(t, "Maple Street 14", p.Name)
	require.Equal(t, 425000, p.Attrs["price"])

	c := County("county-042")
	require.Equal(t, "county county-042", c.Name, "default name derives from type and id")
}

func TestRows_FlattenAttrs(t *testing.T) {
	rows := Rows(
		Property("prop-1", WithAttr("price", 150000)),
		County("county-042"),
	)

	require.Len(t, rows, 2)
	require.Equal(t, "prop-1", rows[0]["id"])
	require.Equal(t, 150000, rows[0]["price"])
	require.Equal(t, "county", rows[1]["type"])
}

func TestStubFetcher(t *testing.T) {
	f := NewStubFetcher(Property("prop-1", WithAttr("price", 150000)))

	e, err := f.FetchEntity(context.Background(), entity.TypeProperty, "prop-1")
	require.NoError(t, err)
	require.Equal(t, 150000, e.Attrs["price"])

	// Unknown ids synthesize an entity instead of failing.
	e, err = f.FetchEntity(context.Background(), entity.TypeCounty, "county-9")
	require.NoError(t, err)
	require.Equal(t, "county-9", e.ID)
	require.Equal(t, 2, f.Calls())

	f.Fail(errors.New("down"))
	_, err = f.FetchEntity(context.Background(), entity.TypeProperty, "prop-1")
	require.Error(t, err)
}
