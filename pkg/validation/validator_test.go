package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,pwd"`
	Nitrogen float64 `json:"nitrogen" validate:"nutrient"`
	Soil     string  `json:"soil" validate:"required,soiltype"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetailsUsesJSONNames(t *testing.T) {
	err := newValidator().Struct(sample{Email: "bad", Password: "123", Nitrogen: 200, Soil: "Mud"})

	d := ToDetails(err)
	assert.Equal(t, "must be a valid email", d["email"])
	assert.Equal(t, "must be between 6 and 72 characters", d["password"])
	assert.Equal(t, "must be between 0 and 150", d["nitrogen"])
	assert.Contains(t, d["soil"], "Loamy")
}

func TestToDetailsValidPayload(t *testing.T) {
	err := newValidator().Struct(sample{Email: "a@b.co", Password: "123456", Nitrogen: 90, Soil: "Clay"})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(err))
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var s sample
	err := json.Unmarshal([]byte(`{"email":`), &s)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
