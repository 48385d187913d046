package api

import "github.com/judgehub/judgehub"

// errorResponse is the §7 wire shape: {reason, code, message}.
type errorResponse struct {
	Reason  string `json:"reason"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// ErrorHandler renders any error returned from a handler as the taxonomy's
// {reason, code, message} JSON body. Errors that aren't already an
// *judgehub.HTTPError are reported as ERR_INTERNAL, with the underlying
// message logged but not leaked to the client.
func ErrorHandler(c judgehub.Context, err error) error {
	he := judgehub.AsHTTPError(err)
	if he == nil {
		c.LogError("unhandled handler error", "error", err)
		he = judgehub.ErrInternal("internal error", judgehub.WithError(err))
	}
	return c.JSON(he.StatusCode(), errorResponse{Reason: he.Reason, Code: he.Code, Message: he.Message})
}
