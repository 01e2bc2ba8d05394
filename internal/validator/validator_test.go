package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

func TestNew(t *testing.T) {
	v := New()
	require.NotNil(t, v, "New() should return a non-nil validator")
}

func TestNotblankValidator(t *testing.T) {
	v := New()

	type TestStruct struct {
		Code string `validate:"notblank"`
	}

	testCases := []struct {
		name        string
		input       string
		expectError bool
	}{
		{"valid_code", "SAVE10", false},
		{"padded_code", "  save10  ", false},
		{"spaces_only", "   ", true},
		{"tabs_and_newlines", "\t\n", true},
		{"empty", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(TestStruct{Code: tc.input})
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestYMDValidator(t *testing.T) {
	v := New()

	testCases := []struct {
		name        string
		input       string
		expectError bool
	}{
		{"valid_date", "2026-10-20", false},
		{"leap_day", "2028-02-29", false},
		{"not_a_leap_year", "2027-02-29", true},
		{"month_out_of_range", "2026-13-01", true},
		{"missing_padding", "2026-1-5", true},
		{"day_first", "20-10-2026", true},
		{"empty", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(model.SelectDateRequest{Date: tc.input})
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHHMMValidator(t *testing.T) {
	v := New()

	testCases := []struct {
		name        string
		input       string
		expectError bool
	}{
		{"morning", "06:00", false},
		{"late_evening", "23:00", false},
		{"midnight", "00:00", false},
		{"hour_out_of_range", "24:00", true},
		{"am_pm_format", "05:00 AM", true},
		{"single_digit_hour", "9:00", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(model.PickSlotRequest{StartTime: tc.input})
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStartFlowRequestValidation(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(model.StartFlowRequest{VenueID: "court-1", VenueName: "Arena"}))
	assert.Error(t, v.Struct(model.StartFlowRequest{VenueID: "  "}), "blank venue id should fail")
}

func TestNotblankOnNonStringField(t *testing.T) {
	v := New()

	type TestStructInt struct {
		Value int `validate:"notblank"`
	}

	err := v.Struct(TestStructInt{Value: 0})
	assert.NoError(t, err, "notblank should pass for non-string types")
}

func TestFieldNamesUseJSONTags(t *testing.T) {
	v := New()

	err := v.Struct(model.ApplyCouponRequest{})

	var ve validator.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "code", ve[0].Field())
	assert.Equal(t, "required", ve[0].Tag())
}
