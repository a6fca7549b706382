package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

// ClassifyConnect maps a CONNACK return code and the connect token's error
// to a SessionStatus.
//
// The return code wins when it is a broker refusal. Otherwise the error is
// inspected: paho surfaces dial, DNS and TLS failures unwrapped, with
// return code packets.ErrNetworkError.
func ClassifyConnect(returnCode byte, err error) SessionStatus {
	switch returnCode {
	case packets.Accepted:
		if err == nil {
			return SessionSuccess
		}
	case packets.ErrRefusedBadUsernameOrPassword, packets.ErrRefusedNotAuthorised:
		return SessionAuthRejected
	case packets.ErrRefusedBadProtocolVersion, packets.ErrRefusedIDRejected:
		return SessionServerUnreachable
	case packets.ErrRefusedServerUnavailable:
		return SessionOtherFailure
	}

	switch {
	case errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised):
		return SessionAuthRejected
	case errors.Is(err, packets.ErrorRefusedBadProtocolVersion),
		errors.Is(err, packets.ErrorRefusedIDRejected):
		return SessionServerUnreachable
	case isUnreachable(err):
		return SessionServerUnreachable
	}

	return SessionOtherFailure
}

// isUnreachable reports whether err means the broker cannot be reached at
// all at the configured address. Timeouts are not included: a slow network
// may recover on the next attempt.
func isUnreachable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var verifyErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}
