package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConverter_FailNoBinary(t *testing.T) {
	_, err := NewConverter("no-such-ffmpeg-binary")
	assert.NotNil(t, err)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "olia", tail("olia", 10))
	assert.Equal(t, "lia", tail("olia", 3))
	assert.Equal(t, "", tail("", 3))
}
