package api

import (
	"bufio"
	"net"
	"net/http"
)

type hijackRecorder struct {
	*statusRecorder
	hijacker http.Hijacker
}

func (h hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.status = http.StatusSwitchingProtocols
	return h.hijacker.Hijack()
}

// hijackable keeps http.Hijacker visible through the recorder
func hijackable(rec *statusRecorder, w http.ResponseWriter) http.ResponseWriter {
	if hj, ok := w.(http.Hijacker); ok {
		return hijackRecorder{statusRecorder: rec, hijacker: hj}
	}
	return rec
}
