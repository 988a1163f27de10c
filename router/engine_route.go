package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kbukum/executionbackup/engine"
	apperrors "github.com/kbukum/executionbackup/errors"
	"github.com/kbukum/executionbackup/httpclient"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/node"
	"github.com/kbukum/executionbackup/observability"
)

// RouteEngine dispatches an engine API request and returns the response
// body and HTTP status to hand back to the consensus client.
func (r *Router) RouteEngine(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	ctx, span := observability.StartSpan(ctx, observability.SpanEngineRoute)
	defer span.End()
	observability.SetSpanAttribute(ctx, "rpc.method", req.Method)

	switch {
	case req.Method == engine.MethodGetPayloadV1:
		return r.routeGetPayloadV1(ctx, req, body, auth)
	case req.Method == engine.MethodGetPayloadV2 || req.Method == engine.MethodGetPayloadV3:
		return r.routeGetPayload(ctx, req, body, auth)
	case engine.IsNewPayload(req.Method):
		return r.routeNewPayload(ctx, req, body, auth)
	case engine.IsForkchoiceUpdated(req.Method):
		return r.routeForkchoiceUpdated(ctx, req, body, auth)
	case req.Method == engine.MethodGetClientVersionV1:
		return r.routeClientVersion(ctx, req, body, auth)
	default:
		return r.routeEngineDefault(ctx, req, body, auth)
	}
}

// upstreamError classifies a transport failure talking to a node.
func upstreamError(nodeURL string, err error) *apperrors.AppError {
	if httpclient.IsTimeout(err) {
		return apperrors.Timeout(nodeURL).WithCause(err)
	}
	return apperrors.UpstreamFailure(nodeURL, err)
}

// routeGetPayloadV1 goes to a single node: the block a node built is the
// block it must be asked for, so fanning out buys nothing.
func (r *Router) routeGetPayloadV1(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	n := r.GetExecutionNode()
	if n == nil {
		appErr := apperrors.NoNodesAvailable()
		return engine.MakeError(req.ID, appErr.Message), appErr.HTTPStatus
	}

	resp, err := n.DoRequestNoTimeout(ctx, body, auth)
	if err != nil {
		r.log.WithError(err).Warn("getPayloadV1 failed", logger.Fields(logger.FieldNode, n.URL))
		if httpclient.IsConnection(err) || httpclient.IsTimeout(err) {
			n.SetOnlineAndSyncing()
		}
		return engine.MakeError(req.ID, upstreamError(n.URL, err).Message), http.StatusOK
	}
	return resp.Body, resp.StatusCode
}

// routeGetPayload fans engine_getPayloadV2/V3 out to every alive node
// and answers with the most profitable block.
func (r *Router) routeGetPayload(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	resps := fanOut(ctx, r.log, r.aliveSnapshot(), body, auth, engine.ParseGetPayloadResponse)

	var best *engine.GetPayloadResponse
	values := make([]string, 0, len(resps))
	for _, resp := range resps {
		values = append(values, resp.BlockValue.String())
		if best == nil || resp.BlockValue.Cmp(best.BlockValue) > 0 {
			best = resp
		}
	}

	if best == nil {
		r.log.Warn("no blocks in getPayload responses", logger.Fields(logger.FieldMethod, req.Method))
		return engine.MakeError(req.ID, "no blocks found in getPayload responses"), http.StatusOK
	}

	r.log.Info("block requested by consensus client", logger.Fields(
		"block", best.BlockNumber,
		"block_values", values,
		"chosen_value", best.BlockValue.String(),
	))
	return engine.MakeResponse(req.ID, best.Result), http.StatusOK
}

// routeNewPayload fans a newPayload out and aggregates the verdicts.
// When the nodes cannot be trusted to agree, the payload's block hash is
// verified locally before the consensus client is stalled with SYNCING;
// a payload that fails verification is never acknowledged.
func (r *Router) routeNewPayload(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	payload, err := engine.ParseNewPayloadRequest(req, &r.cfg.Forks)
	if err != nil {
		r.log.WithError(err).Error("undecodable newPayload request", logger.Fields(logger.FieldMethod, req.Method))
		return engine.MakeError(req.ID, err.Error()), http.StatusBadRequest
	}

	statuses := fanOut(ctx, r.log, r.aliveSnapshot(), body, auth, decodeInto[engine.PayloadStatusV1])

	verdict, logicErr := r.fcuLogic(ctx, statuses, body, auth)
	if logicErr != nil {
		r.log.Warn("stalling newPayload", logger.Fields(
			logger.FieldMethod, req.Method,
			"reason", logicErr.Error(),
		))
		if err := engine.VerifyPayloadBlockHash(&payload.ExecutionPayload, payload.ParentBeaconBlockRoot); err != nil {
			r.log.WithError(err).Error("payload block hash rejected")
			return engine.MakeError(req.ID, err.Error()), http.StatusOK
		}
		return engine.MakeResponse(req.ID, engine.SyncingPayloadStatus()), http.StatusOK
	}

	return engine.MakeResponse(req.ID, verdict), http.StatusOK
}

// routeForkchoiceUpdated fans an fcU out and aggregates the payload
// statuses, carrying through the payloadId the nodes returned.
func (r *Router) routeForkchoiceUpdated(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	resps := fanOut(ctx, r.log, r.aliveSnapshot(), body, auth, decodeInto[engine.ForkchoiceUpdatedResponse])

	statuses := make([]engine.PayloadStatusV1, 0, len(resps))
	var payloadID *string
	for _, resp := range resps {
		if resp.PayloadID != nil {
			// All nodes derive the same payloadId for the same fcU.
			payloadID = resp.PayloadID
		}
		statuses = append(statuses, resp.PayloadStatus)
	}

	verdict, logicErr := r.fcuLogic(ctx, statuses, body, auth)
	if logicErr != nil {
		r.log.Warn("stalling forkchoiceUpdated", logger.Fields(
			logger.FieldMethod, req.Method,
			"reason", logicErr.Error(),
		))
		return engine.MakeResponse(req.ID, engine.SyncingForkchoiceResponse()), http.StatusOK
	}

	return engine.MakeResponse(req.ID, engine.ForkchoiceUpdatedResponse{
		PayloadStatus: verdict,
		PayloadID:     payloadID,
	}), http.StatusOK
}

// routeClientVersion collects every alive node's client version list
// into one array.
func (r *Router) routeClientVersion(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	resps := fanOut(ctx, r.log, r.aliveSnapshot(), body, auth, rawResult)

	versions := make([]json.RawMessage, 0)
	for _, resp := range resps {
		var list []json.RawMessage
		if err := json.Unmarshal(resp, &list); err != nil {
			continue
		}
		versions = append(versions, list...)
	}
	return engine.MakeResponse(req.ID, versions), http.StatusOK
}

// routeEngineDefault answers from the primary node and mirrors the call
// to the remaining alive nodes so their engine state stays consistent.
func (r *Router) routeEngineDefault(ctx context.Context, req *engine.RpcRequest, body []byte, auth string) ([]byte, int) {
	primary := r.GetExecutionNode()
	if primary == nil {
		r.log.Warn("no primary node available", logger.Fields(logger.FieldMethod, req.Method))
		appErr := apperrors.NoNodesAvailable()
		return engine.MakeError(req.ID, appErr.Message), appErr.HTTPStatus
	}

	resp, err := primary.DoRequestNoTimeout(ctx, body, auth)

	var replicas []*node.Node
	for _, n := range r.aliveSnapshot() {
		if n.URL != primary.URL {
			replicas = append(replicas, n)
		}
	}
	r.replicate(replicas, body, auth)

	if err != nil {
		r.log.WithError(err).Warn("primary node error", logger.Fields(logger.FieldNode, primary.URL))
		return engine.MakeError(req.ID, upstreamError(primary.URL, err).Message), http.StatusOK
	}
	return resp.Body, resp.StatusCode
}
