package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/FranksOps/seoscope/pkg/httpclient"
)

// CallJSON executes req and decodes a JSON response body into out. Non-2xx
// statuses, transport errors and undecodable bodies come back classified.
func CallJSON(ctx context.Context, client *httpclient.Client, name string, req *http.Request, out any) *Error {
	body, perr := Call(ctx, client, name, req)
	if perr != nil {
		return perr
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Empty(name)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewError(name, KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Call executes req and returns the raw body of a 2xx response.
func Call(ctx context.Context, client *httpclient.Client, name string, req *http.Request) ([]byte, *Error) {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, FromErr(name, err)
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, FromErr(name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, NewError(name, Classify(resp.StatusCode), fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}
	return body, nil
}
