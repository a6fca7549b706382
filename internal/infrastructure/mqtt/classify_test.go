package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyConnect(t *testing.T) {
	tests := []struct {
		name string
		rc   byte
		err  error
		want SessionStatus
	}{
		{
			name: "accepted",
			rc:   packets.Accepted,
			want: SessionSuccess,
		},
		{
			name: "bad username or password",
			rc:   packets.ErrRefusedBadUsernameOrPassword,
			err:  packets.ErrorRefusedBadUsernameOrPassword,
			want: SessionAuthRejected,
		},
		{
			name: "not authorised",
			rc:   packets.ErrRefusedNotAuthorised,
			err:  packets.ErrorRefusedNotAuthorised,
			want: SessionAuthRejected,
		},
		{
			name: "auth sentinel without return code",
			rc:   packets.ErrNetworkError,
			err:  packets.ErrorRefusedBadUsernameOrPassword,
			want: SessionAuthRejected,
		},
		{
			name: "bad protocol version",
			rc:   packets.ErrRefusedBadProtocolVersion,
			err:  packets.ErrorRefusedBadProtocolVersion,
			want: SessionServerUnreachable,
		},
		{
			name: "identifier rejected",
			rc:   packets.ErrRefusedIDRejected,
			err:  packets.ErrorRefusedIDRejected,
			want: SessionServerUnreachable,
		},
		{
			name: "server unavailable",
			rc:   packets.ErrRefusedServerUnavailable,
			err:  packets.ErrorRefusedServerUnavailable,
			want: SessionOtherFailure,
		},
		{
			name: "connection refused",
			rc:   packets.ErrNetworkError,
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{}},
			want: SessionServerUnreachable,
		},
		{
			name: "econnrefused",
			rc:   packets.ErrNetworkError,
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: SessionServerUnreachable,
		},
		{
			name: "dns not found",
			rc:   packets.ErrNetworkError,
			err:  &net.DNSError{Err: "no such host", Name: "broker.invalid", IsNotFound: true},
			want: SessionServerUnreachable,
		},
		{
			name: "host unreachable",
			rc:   packets.ErrNetworkError,
			err:  syscall.EHOSTUNREACH,
			want: SessionServerUnreachable,
		},
		{
			name: "unknown certificate authority",
			rc:   packets.ErrNetworkError,
			err:  &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}},
			want: SessionServerUnreachable,
		},
		{
			name: "dial timeout",
			rc:   packets.ErrNetworkError,
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}},
			want: SessionOtherFailure,
		},
		{
			name: "dns lookup timeout",
			rc:   packets.ErrNetworkError,
			err:  &net.DNSError{Err: "i/o timeout", Name: "broker.local", IsTimeout: true},
			want: SessionOtherFailure,
		},
		{
			name: "connection reset during handshake",
			rc:   packets.ErrNetworkError,
			err:  io.EOF,
			want: SessionOtherFailure,
		},
		{
			name: "protocol violation",
			rc:   packets.ErrProtocolViolation,
			err:  packets.ErrorProtocolViolation,
			want: SessionOtherFailure,
		},
		{
			name: "accepted with error",
			rc:   packets.Accepted,
			err:  errors.New("connection lost before ack"),
			want: SessionOtherFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyConnect(tt.rc, tt.err))
		})
	}
}
