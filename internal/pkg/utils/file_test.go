package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportAudioExt(t *testing.T) {
	assert.True(t, SupportAudioExt(".webm"))
	assert.True(t, SupportAudioExt(".wav"))
	assert.True(t, SupportAudioExt(".mp3"))
	assert.True(t, SupportAudioExt(".m4a"))
	assert.False(t, SupportAudioExt(".txt"))
	assert.False(t, SupportAudioExt(""))
}

func TestSupportAudioContentType(t *testing.T) {
	assert.True(t, SupportAudioContentType("audio/webm"))
	assert.True(t, SupportAudioContentType("audio/mpeg"))
	assert.True(t, SupportAudioContentType("video/webm"))
	assert.False(t, SupportAudioContentType("text/plain"))
	assert.False(t, SupportAudioContentType(""))
}

func TestNeedsConversion(t *testing.T) {
	assert.True(t, NeedsConversion("a.webm"))
	assert.True(t, NeedsConversion("a.mp3"))
	assert.False(t, NeedsConversion("a.wav"))
	assert.False(t, NeedsConversion("a.WAV"))
}

func TestMakeValidateFileName(t *testing.T) {
	type args struct {
		id, name string
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr bool
	}{
		{name: "OK", args: args{id: "1", name: "a.webm"}, want: "1/a.webm"},
		{name: "No ID", args: args{id: "", name: "a.webm"}, want: "a.webm"},
		{name: "Empty", args: args{id: "1", name: ""}, wantErr: true},
		{name: "Slash", args: args{id: "1", name: "a/b.webm"}, wantErr: true},
		{name: "Backslash", args: args{id: "1", name: "a\\b.webm"}, wantErr: true},
		{name: "Dots", args: args{id: "1", name: "..a.webm"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeValidateFileName(tt.args.id, tt.args.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("MakeValidateFileName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
