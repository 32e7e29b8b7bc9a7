package client

import (
	"errors"
	"fmt"

	"github.com/Infinity2209/user/pkg/sdk"
)

// Explain rewrites SDK errors into messages that tell the operator what to do next.
func Explain(err error) error {
	if err == nil {
		return nil
	}
	var accessErr *sdk.AccessError
	switch {
	case errors.As(err, &accessErr) && errors.Is(err, sdk.ErrUnauthenticated):
		return fmt.Errorf("%w; run `panelctl auth login` first", err)
	case errors.As(err, &accessErr):
		return fmt.Errorf("%w; ask an admin for access", err)
	case errors.Is(err, sdk.ErrUnauthenticated):
		return fmt.Errorf("%w; the session may have expired, run `panelctl auth login`", err)
	case sdk.IsTransportFailure(err):
		return fmt.Errorf("could not reach the panel server: %w", err)
	}
	return err
}
