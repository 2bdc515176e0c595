package ipc

import (
	"errors"
	"fmt"
	"net/rpc"
	"strings"

	"albumtracker/internal/catalog"
)

// encodeError prefixes err with its catalog kind so the client can rebuild
// the sentinel. net/rpc only carries the error text.
func encodeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s", catalog.Kind(err), err.Error())
}

// RemoteError is a catalog error returned by the daemon. It unwraps to the
// matching catalog sentinel, so errors.Is works across the socket.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return catalog.KindError(e.Kind)
}

func decodeError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	text := string(serverErr)
	rest, ok := strings.CutPrefix(text, "[")
	if !ok {
		return err
	}
	kind, message, ok := strings.Cut(rest, "] ")
	if !ok || kind == "" {
		return err
	}
	return &RemoteError{Kind: kind, Message: message}
}
