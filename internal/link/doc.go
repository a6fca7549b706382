// Package link is the Network Link Layer: it associates the device with a
// Wi-Fi network and reports what happened, nothing more.
//
// The layer never retries and never decides whether a failure is fatal.
// It exposes a begin/poll pair so the caller can drive it from a
// cooperative loop:
//
//	l := link.NewNMCLI(link.ExecRunner{}, "wlan0", 10*time.Second)
//	if err := l.BeginConnect("HomeNet", "passphrase"); err != nil {
//	    return err
//	}
//	for l.PollStatus() == link.StatusInProgress {
//	    // do other work, poll again later
//	}
//
// # Implementation
//
// NMCLI shells out to NetworkManager's nmcli in a background goroutine and
// hands the outcome back over a channel, so PollStatus is a non-blocking
// receive. Classification of nmcli output lives in classifyConnect.
//
// SelectNetwork picks the strongest visible network out of the provisioned
// set (at most three) before a connection cycle starts.
package link
