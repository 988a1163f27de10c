package router

import (
	"context"
	"net/http"

	"github.com/kbukum/executionbackup/engine"
	apperrors "github.com/kbukum/executionbackup/errors"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/observability"
)

// RouteNormal forwards a non-engine JSON-RPC body to the primary node.
// Callers without an Authorization header (OpenEthereum-style clients)
// get a token signed with the target node's secret.
func (r *Router) RouteNormal(ctx context.Context, body []byte, auth string) ([]byte, int) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNormalRoute)
	defer span.End()

	n := r.GetExecutionNode()
	if n == nil {
		r.log.Warn("no node available for normal request")
		appErr := apperrors.NoNodesAvailable()
		return engine.MakeError(requestID(body), appErr.Message), appErr.HTTPStatus
	}

	if auth == "" {
		signed, err := n.SignedAuthHeader()
		if err != nil {
			r.log.WithError(err).Error("could not sign token for normal request", logger.Fields(logger.FieldNode, n.URL))
			appErr := apperrors.Internal(err)
			return engine.MakeError(requestID(body), appErr.Message), appErr.HTTPStatus
		}
		auth = signed
	}

	resp, err := n.DoRequestNoTimeout(ctx, body, auth)
	if err != nil {
		r.log.WithError(err).Warn("normal request failed", logger.Fields(logger.FieldNode, n.URL))
		return engine.MakeError(requestID(body), upstreamError(n.URL, err).Message), http.StatusOK
	}
	return resp.Body, resp.StatusCode
}

// requestID extracts the JSON-RPC id for error envelopes, zero when the
// body is unreadable.
func requestID(body []byte) uint64 {
	req, err := engine.ParseRequest(body)
	if err != nil {
		return 0
	}
	return req.ID
}
