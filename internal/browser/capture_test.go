// internal/browser/capture_test.go
package browser

import (
	"testing"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xkilldash9x/easel-cli/api/schemas"
)

func TestFormatConsoleArgs(t *testing.T) {
	tests := []struct {
		name string
		args []*cdpruntime.RemoteObject
		want string
	}{
		{
			name: "StringValue",
			args: []*cdpruntime.RemoteObject{
				{Type: "string", Value: jsontext.Value(`"hello"`)},
			},
			want: "hello",
		},
		{
			name: "MultipleValuesJoinedWithSpaces",
			args: []*cdpruntime.RemoteObject{
				{Type: "string", Value: jsontext.Value(`"count:"`)},
				{Type: "number", Value: jsontext.Value(`42`)},
			},
			want: "count: 42",
		},
		{
			name: "DescriptionFallback",
			args: []*cdpruntime.RemoteObject{
				{Type: "object", Description: "Error: quota exceeded"},
			},
			want: "Error: quota exceeded",
		},
		{
			name: "TypeFallback",
			args: []*cdpruntime.RemoteObject{
				{Type: "symbol"},
			},
			want: "[symbol]",
		},
		{
			name: "Empty",
			args: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatConsoleArgs(tt.args))
		})
	}
}

func TestConsoleCaptureEntries(t *testing.T) {
	c := newConsoleCapture(zap.NewNop(), false)

	c.append(schemas.ConsoleLog{Type: "log", Text: "first"})
	c.append(schemas.ConsoleLog{Type: "exception", Text: "boom", Source: "runtime"})

	entries := c.entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Text)
	assert.Equal(t, "exception", entries[1].Type)

	// The returned slice is a copy; mutating it must not touch the capture.
	entries[0].Text = "mutated"
	assert.Equal(t, "first", c.entries()[0].Text)
}
