package resilience

import (
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transient wrapper", err: NewTransientError(eris.New("503"), 503), want: true},
		{
			name: "wrapped transient",
			err:  eris.Wrap(NewTransientError(eris.New("429"), 429), "hunter: search"),
			want: true,
		},
		{name: "econnreset", err: syscall.ECONNRESET, want: true},
		{name: "econnrefused", err: syscall.ECONNREFUSED, want: true},
		{name: "reset text", err: eris.New("read tcp: connection reset by peer"), want: true},
		{name: "dns text", err: eris.New("dial tcp: lookup acme.invalid: no such host"), want: true},
		{name: "io timeout text", err: eris.New("read tcp 10.0.0.1:443: i/o timeout"), want: true},
		{name: "tls timeout text", err: eris.New("net/http: TLS handshake timeout"), want: true},
		{name: "auth failure", err: eris.New("hunter: status 401"), want: false},
		{name: "quota exhausted", err: eris.New("hunter: quota exceeded"), want: false},
		{name: "plain error", err: eris.New("parse failure"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := eris.New("too many requests")
	te := NewTransientError(inner, 429)

	assert.Equal(t, "too many requests", te.Error())
	assert.Equal(t, 429, te.StatusCode)
	assert.Equal(t, inner, te.Unwrap())
}
