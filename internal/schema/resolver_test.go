package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policypilot/internal/errors"
)

func TestResolveAliases(t *testing.T) {
	headers := []string{"Pixel_ID", "REGION", "pixel loan amount"}
	fields := []Field{
		{Name: "pixel", Aliases: []string{"pixel", "pixel_id"}, Required: true},
		{Name: "region", Aliases: []string{"region"}, Required: true},
		{Name: "loan_amount", Aliases: []string{"pixel_loan_amount", "loan"}, Required: true},
	}

	res, err := Resolve("input.csv", headers, fields)
	require.NoError(t, err)

	assert.Equal(t, "Pixel_ID", res["pixel"])
	assert.Equal(t, "REGION", res["region"])
	assert.Equal(t, "pixel loan amount", res["loan_amount"])
}

func TestResolveFirstAliasWins(t *testing.T) {
	headers := []string{"loan", "pixel_loan_amount"}
	fields := []Field{
		{Name: "loan_amount", Aliases: []string{"pixel_loan_amount", "loan"}, Required: true},
	}

	res, err := Resolve("input.csv", headers, fields)
	require.NoError(t, err)
	assert.Equal(t, "pixel_loan_amount", res["loan_amount"])
}

func TestResolveOptionalFieldAbsent(t *testing.T) {
	headers := []string{"pixel"}
	fields := []Field{
		{Name: "pixel", Aliases: []string{"pixel"}, Required: true},
		{Name: "district", Aliases: []string{"district"}},
	}

	res, err := Resolve("input.csv", headers, fields)
	require.NoError(t, err)

	_, ok := res.Header("district")
	assert.False(t, ok)
}

func TestResolveReportsAllUnresolvedTogether(t *testing.T) {
	headers := []string{"something", "else"}
	fields := []Field{
		{Name: "pixel", Aliases: []string{"pixel", "pixel_id"}, Required: true},
		{Name: "region", Aliases: []string{"region"}, Required: true},
		{Name: "district", Aliases: []string{"district"}},
	}

	_, err := Resolve("crosswalk.csv", headers, fields)
	require.Error(t, err)

	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))

	// Both required fields and the available columns appear in one message.
	msg := err.Error()
	assert.Contains(t, msg, "crosswalk.csv")
	assert.Contains(t, msg, "pixel")
	assert.Contains(t, msg, "region")
	assert.Contains(t, msg, "something")
	assert.NotContains(t, msg, "district")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "pixelid", Normalize("Pixel_ID"))
	assert.Equal(t, "pixelid", Normalize("  pixel id "))
	assert.Equal(t, "pixelid", Normalize("pixel-id"))
}
