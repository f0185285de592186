package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Mobile App", want: "mobile-app"},
		{in: "  Auth -- Flow  ", want: "auth-flow"},
		{in: "web", want: "web"},
		{in: "Checkout (v2)!", want: "checkout-v2"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestAtoiDefault(t *testing.T) {
	assert.Equal(t, 25, AtoiDefault("25", 15))
	assert.Equal(t, 15, AtoiDefault("abc", 15))
	assert.Equal(t, 15, AtoiDefault("-3", 15))
	assert.Equal(t, 15, AtoiDefault("", 15))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 1, ClampInt(0, 1, 100))
	assert.Equal(t, 100, ClampInt(500, 1, 100))
	assert.Equal(t, 42, ClampInt(42, 1, 100))
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, SplitCSV(" "))
	assert.Equal(t, []string{"web", "mobile"}, SplitCSV("web, ,mobile"))
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedUnique([]string{"c", "a", "b", "a"}))
	assert.Nil(t, SortedUnique(nil))
}
