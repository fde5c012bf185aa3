package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artemshloyda/photoresizer/internal/resizer"
)

func TestBar_CountsByStatus(t *testing.T) {
	var out bytes.Buffer
	bar := New(Options{Total: 4, Writer: &out})

	bar.Observe(resizer.Result{Filename: "a.jpg", Status: resizer.StatusProcessed})
	bar.Observe(resizer.Result{Filename: "b.jpg", Status: resizer.StatusProcessed})
	bar.Observe(resizer.Result{Filename: "c.jpg", Status: resizer.StatusAlreadyProcessed})
	bar.Observe(resizer.Result{Filename: "d.jpg", Status: resizer.StatusFailed, Error: "битый файл"})
	bar.Finish()

	assert.Equal(t, 2, bar.Count(resizer.StatusProcessed))
	assert.Equal(t, 1, bar.Count(resizer.StatusAlreadyProcessed))
	assert.Equal(t, 1, bar.Count(resizer.StatusFailed))
	assert.Equal(t, "уменьшено: 2, уже актуальны: 1, с ошибками: 1", bar.Summary())
	assert.Contains(t, out.String(), "❌ d.jpg: битый файл")
	assert.NotContains(t, out.String(), "✅")
}

func TestBar_WatchLines(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		result  resizer.Result
		want    string
	}{
		{
			name:    "processed verbose",
			verbose: true,
			result:  resizer.Result{Filename: "a.png", OutputPath: "/out/a_x0.5.png", Status: resizer.StatusProcessed},
			want:    "✅ a.png -> /out/a_x0.5.png\n",
		},
		{
			name:   "processed quiet",
			result: resizer.Result{Filename: "a.png", Status: resizer.StatusProcessed},
			want:   "",
		},
		{
			name:    "already processed",
			verbose: true,
			result:  resizer.Result{Filename: "a.png", Status: resizer.StatusAlreadyProcessed},
			want:    "",
		},
		{
			name:   "failed",
			result: resizer.Result{Filename: "a.png", Status: resizer.StatusFailed, Error: "нет доступа"},
			want:   "❌ a.png: нет доступа\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			bar := New(Options{Verbose: tt.verbose, Writer: &out})

			bar.Observe(tt.result)

			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, 1, bar.Count(tt.result.Status))
		})
	}
}

func TestBar_Disabled(t *testing.T) {
	var out bytes.Buffer
	bar := New(Options{Total: 2, Disabled: true, Writer: &out})

	bar.Observe(resizer.Result{Status: resizer.StatusProcessed})
	bar.Finish()

	assert.Empty(t, out.String())
	assert.Equal(t, 1, bar.Count(resizer.StatusProcessed))
}
