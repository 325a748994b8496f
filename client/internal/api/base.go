package api

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	clienterrors "github.com/mycelian/calendar-sync/client/internal/errors"
)

// okBody is implemented by every response envelope.
type okBody interface{ accepted() bool }

// send executes req and decodes a 2xx body into out. Transport failures,
// non-2xx statuses and {ok:false} bodies all come back as
// *clienterrors.ClassifiedError.
func send(ctx context.Context, req *resty.Request, method, path, op string, out okBody) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		observe(op, "error", start)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return clienterrors.NewNetworkError(op, err)
	}
	observe(op, statusClass(resp.StatusCode()), start)

	body := resp.Body()
	if resp.IsError() || resp.StatusCode() >= 300 {
		return clienterrors.NewHTTPError(resp.StatusCode(), body, op)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return clienterrors.NewRejectedError(resp.StatusCode(), body, op+": decode")
	}
	if !out.accepted() {
		return clienterrors.NewRejectedError(resp.StatusCode(), body, op)
	}
	return nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
