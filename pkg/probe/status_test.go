package probe

import (
	"testing"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "OK"},
		{201, "Created"},
		{204, "No Content"},
		{400, "Bad Request"},
		{401, "Unauthorized"},
		{403, "Forbidden"},
		{404, "Not Found"},
		{500, "Internal Server Error"},
		{502, "Bad Gateway"},
		{503, "Service Unavailable"},
		{418, "HTTP 418"},
		{299, "HTTP 299"},
		{0, "HTTP 0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := StatusText(tt.code); got != tt.want {
				t.Errorf("StatusText(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestFormatHeaders(t *testing.T) {
	headers := []Header{
		{Name: "Allow", Value: "GET, POST, OPTIONS"},
		{Name: "Content-Type", Value: "application/json"},
	}

	want := "Allow: GET, POST, OPTIONS\nContent-Type: application/json"
	if got := FormatHeaders(headers); got != want {
		t.Errorf("FormatHeaders() = %q, want %q", got, want)
	}

	if got := FormatHeaders(nil); got != "" {
		t.Errorf("FormatHeaders(nil) = %q, want empty", got)
	}
}

func TestHeaderValue(t *testing.T) {
	headers := []Header{
		{Name: "Allow", Value: "GET, OPTIONS"},
		{Name: "Access-Control-Max-Age", Value: "600"},
	}

	if v, ok := headerValue(headers, "allow"); !ok || v != "GET, OPTIONS" {
		t.Errorf("headerValue(allow) = %q, %v", v, ok)
	}
	if v, ok := headerValue(headers, "ACCESS-CONTROL-MAX-AGE"); !ok || v != "600" {
		t.Errorf("headerValue upper = %q, %v", v, ok)
	}
	if _, ok := headerValue(headers, "Missing"); ok {
		t.Error("headerValue(Missing) reported found")
	}
}
