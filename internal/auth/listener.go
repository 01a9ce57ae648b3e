package auth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"
)

var successPage = []byte(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8" />
    <title>Sign-in Complete</title>
</head>
<body>
    <p>Sign-in complete. You can return to the application and close this browser tab.</p>
</body>
</html>
`)

const failPageFormat = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8" />
    <title>Sign-in Failed</title>
</head>
<body>
    <p>Sign-in failed. You can return to the application and close this browser tab.</p>
    <p>Error details: %s</p>
</body>
</html>
`

// callbackServer is a local HTTP server bound for the duration of one
// interactive login to receive the authorization redirect. Binding fails
// when another login already holds the port, which is how overlapping
// interactive logins on the shared fixed port are rejected.
type callbackServer struct {
	addr string
	s    *http.Server
}

// newCallbackServer binds localhost:port and starts serving handler.
func newCallbackServer(port int, handler http.Handler) (*callbackServer, error) {
	l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener: %w", err)
	}

	srv := &callbackServer{
		addr: l.Addr().String(),
		s: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: time.Second,
		},
	}
	go func() {
		_ = srv.s.Serve(l)
	}()
	return srv, nil
}

// Addr returns the bound listener address.
func (s *callbackServer) Addr() string {
	return s.addr
}

// Shutdown stops the server and releases the port.
func (s *callbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.s.Shutdown(ctx)
}

func writeSuccessPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(successPage)
}

func writeErrorPage(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = fmt.Fprintf(w, failPageFormat, html.EscapeString(detail))
}
