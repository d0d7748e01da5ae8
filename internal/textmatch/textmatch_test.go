package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasStem(t *testing.T) {
	tests := []struct {
		text string
		stem string
		want bool
	}{
		{"table by the window", "window", true},
		{"leave a review please", "view", false},
		{"a nice view", "view", true},
		{"столик у окна", "окн", true},
		{"maybe, not sure", "not sure", true},
		{"what? again", "what?", true},
		{"somewhat? no", "what?", false},
		{"", "bar", false},
		{"bar", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.stem, func(t *testing.T) {
			assert.Equal(t, tt.want, HasStem(Fold(tt.text), tt.stem))
		})
	}
}

func TestCountStems(t *testing.T) {
	folded := Fold("Maybe, not sure, perhaps you can come. Maybe!")
	assert.Equal(t, 3, CountStems(folded, []string{"maybe", "not sure", "perhaps", "probably"}))
	assert.True(t, AnyStem(folded, []string{"x", "perhaps"}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "при", Truncate("привет", 3))
	assert.Equal(t, "hi", Truncate("hi", 3))
}
