package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVideoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "youtube", url: "https://youtube.com/watch?v=abc123"},
		{name: "www youtube", url: "https://www.youtube.com/watch?v=abc123"},
		{name: "plain http", url: "http://youtube.com/watch?v=abc123"},
		{name: "surrounding whitespace", url: "  https://youtube.com/watch?v=abc123  "},
		{name: "uppercase host", url: "https://WWW.YOUTUBE.COM/watch?v=abc123"},
		{name: "empty", url: "", wantErr: true},
		{name: "whitespace only", url: "   ", wantErr: true},
		{name: "other host", url: "https://vimeo.com/12345", wantErr: true},
		{name: "lookalike host", url: "https://youtube.com.evil.io/watch", wantErr: true},
		{name: "subdomain", url: "https://m.youtube.com/watch?v=abc123", wantErr: true},
		{name: "no scheme", url: "youtube.com/watch?v=abc123", wantErr: true},
		{name: "ftp scheme", url: "ftp://youtube.com/video", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVideoURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
