package scrape

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		header  http.Header
		body    string
		blocked bool
		kind    BlockType
	}{
		{
			name:    "clean page",
			status:  200,
			header:  http.Header{},
			body:    "<html><body>Welcome to Acme Plumbing. Call us today.</body></html>",
			blocked: false,
			kind:    BlockNone,
		},
		{
			name:    "cloudflare 403 via cf-ray",
			status:  403,
			header:  http.Header{"Cf-Ray": []string{"8abc"}},
			body:    "Access denied",
			blocked: true,
			kind:    BlockCloudflare,
		},
		{
			name:    "cloudflare 503 via server header",
			status:  503,
			header:  http.Header{"Server": []string{"cloudflare"}},
			body:    "Service unavailable",
			blocked: true,
			kind:    BlockCloudflare,
		},
		{
			name:    "cloudflare browser check in body",
			status:  200,
			header:  http.Header{},
			body:    "<html>Checking your browser before accessing the site</html>",
			blocked: true,
			kind:    BlockCloudflare,
		},
		{
			name:    "recaptcha page",
			status:  200,
			header:  http.Header{},
			body:    `<div class="g-recaptcha" data-sitekey="x"></div>`,
			blocked: true,
			kind:    BlockCaptcha,
		},
		{
			name:    "js shell with noscript",
			status:  200,
			header:  http.Header{},
			body:    `<html><noscript>Please enable JavaScript</noscript></html>`,
			blocked: true,
			kind:    BlockJSShell,
		},
		{
			name:    "meta refresh shell",
			status:  200,
			header:  http.Header{},
			body:    `<meta http-equiv="refresh" content="0;url=/landing">`,
			blocked: true,
			kind:    BlockJSShell,
		},
		{
			name:    "plain 403 without cloudflare markers",
			status:  403,
			header:  http.Header{},
			body:    "Forbidden by upstream proxy for policy reasons. Contact your administrator for access to this resource and include the request identifier below so the operations team can locate the corresponding log entry.",
			blocked: false,
			kind:    BlockNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, kind := DetectBlock(tt.status, tt.header, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
