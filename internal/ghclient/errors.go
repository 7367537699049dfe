package ghclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v58/github"
)

// ErrMissingToken is returned when the client is built without an access token.
var ErrMissingToken = errors.New("GITHUB_TOKEN environment variable is required")

// Kind separates network failures from non-2xx responses.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// RemoteError describes a failed call to the source-control API.
type RemoteError struct {
	Op     string
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindStatus && re.Status == http.StatusNotFound
}

// newRemoteError classifies a go-github failure. A response means the server
// answered; no response means the request never completed.
func newRemoteError(op string, resp *github.Response, err error) *RemoteError {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &RemoteError{Op: op, Kind: KindStatus, Status: ghErr.Response.StatusCode, Body: ghErr.Message, Err: err}
	}
	if resp != nil && resp.Response != nil {
		body := ""
		if err != nil {
			body = err.Error()
		}
		return &RemoteError{Op: op, Kind: KindStatus, Status: resp.StatusCode, Body: body, Err: err}
	}
	return &RemoteError{Op: op, Kind: KindTransport, Err: err}
}

// unexpectedStatus reports a 2xx the operation does not accept, such as a 200 where a 201 is required.
func unexpectedStatus(op string, resp *github.Response, want int) *RemoteError {
	return &RemoteError{
		Op:     op,
		Kind:   KindStatus,
		Status: resp.StatusCode,
		Body:   fmt.Sprintf("expected status %d", want),
	}
}
