package utils

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"omitempty,email"`
}

type sampleQuery struct {
	Limit  int     `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Active bool    `query:"active"`
	Score  float64 `query:"score"`
	Name   string  `query:"name"`
}

func TestDecodeAndValidateBody(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Rex","email":"owner@example.com"}`))
		var body sampleBody
		require.NoError(t, DecodeAndValidateBody(r, &body))
		assert.Equal(t, "Rex", body.Name)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
		var body sampleBody
		err := DecodeAndValidateBody(r, &body)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Rex","breed":"lab"}`))
		var body sampleBody
		err := DecodeAndValidateBody(r, &body)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("failing validation tags produce field details", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ab","email":"nope"}`))
		var body sampleBody
		err := DecodeAndValidateBody(r, &body)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Name")
		assert.Contains(t, fields, "Email")
	})
}

func TestDecodeAndValidateQuery(t *testing.T) {
	t.Run("coerces types", func(t *testing.T) {
		values := url.Values{}
		values.Set("limit", "25")
		values.Set("active", "true")
		values.Set("score", "4.5")
		values.Set("name", "rex")

		var q sampleQuery
		require.NoError(t, DecodeAndValidateQuery(values, &q))
		assert.Equal(t, 25, q.Limit)
		assert.True(t, q.Active)
		assert.Equal(t, 4.5, q.Score)
		assert.Equal(t, "rex", q.Name)
	})

	t.Run("missing parameters keep zero values", func(t *testing.T) {
		var q sampleQuery
		require.NoError(t, DecodeAndValidateQuery(url.Values{}, &q))
		assert.Zero(t, q.Limit)
	})

	t.Run("uncoercible value reports the parameter name", func(t *testing.T) {
		values := url.Values{}
		values.Set("limit", "lots")

		var q sampleQuery
		err := DecodeAndValidateQuery(values, &q)
		require.Error(t, err)
		assert.Contains(t, GetValidationFields(err), "limit")
	})

	t.Run("validation tags apply after coercion", func(t *testing.T) {
		values := url.Values{}
		values.Set("limit", "9999")

		var q sampleQuery
		err := DecodeAndValidateQuery(values, &q)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown parameters are ignored", func(t *testing.T) {
		values := url.Values{}
		values.Set("unrelated", "x")

		var q sampleQuery
		assert.NoError(t, DecodeAndValidateQuery(values, &q))
	})
}

func TestValidateStruct(t *testing.T) {
	err := ValidateStruct(&sampleBody{Name: ""})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, GetValidationFields(err)["Name"], "required")
}
