package router

import (
	"context"
	"encoding/json"

	"github.com/kbukum/executionbackup/engine"
	"github.com/kbukum/executionbackup/future"
	"github.com/kbukum/executionbackup/httpclient"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/node"
)

// fanOut sends body to every node concurrently and collects the parsed
// results that came back well-formed. Nodes that fail or answer garbage
// are logged and skipped; the caller decides what an empty collection
// means.
func fanOut[T any](ctx context.Context, log *logger.Logger, nodes []*node.Node, body []byte, auth string, parse func(json.RawMessage) (T, error)) []T {
	futs := make([]*future.Future[*httpclient.Response], len(nodes))
	for i, n := range nodes {
		n := n
		futs[i] = future.Go(func() (*httpclient.Response, error) {
			return n.DoRequestNoTimeout(ctx, body, auth)
		})
	}

	out := make([]T, 0, len(nodes))
	for i, fut := range futs {
		resp, err := fut.Await(ctx)
		if err != nil {
			log.WithError(err).Error("fan-out request failed", logger.Fields(logger.FieldNode, nodes[i].URL))
			continue
		}

		result, err := engine.ParseResult(resp.Body)
		if err != nil {
			log.WithError(err).Error("fan-out response rejected", logger.Fields(logger.FieldNode, nodes[i].URL))
			continue
		}

		parsed, err := parse(result)
		if err != nil {
			log.WithError(err).Error("fan-out result undecodable", logger.Fields(logger.FieldNode, nodes[i].URL))
			continue
		}
		out = append(out, parsed)
	}

	return out
}

// replicate sends body to the given nodes in the background, without
// waiting for or inspecting their answers. Used to keep syncing nodes
// fed with fcU and newPayload traffic, and to mirror state-changing
// engine calls to the non-primary alive nodes.
func (r *Router) replicate(nodes []*node.Node, body []byte, auth string) {
	if len(nodes) == 0 {
		return
	}

	go func() {
		ctx := context.Background()
		futs := make([]*future.Future[*httpclient.Response], len(nodes))
		for i, n := range nodes {
			n := n
			futs[i] = future.Go(func() (*httpclient.Response, error) {
				return n.DoRequestNoTimeout(ctx, body, auth)
			})
		}
		for _, fut := range futs {
			_, _ = fut.Await(ctx)
		}
	}()
}

func decodeInto[T any](result json.RawMessage) (T, error) {
	var out T
	err := json.Unmarshal(result, &out)
	return out, err
}

func rawResult(result json.RawMessage) (json.RawMessage, error) {
	return result, nil
}
