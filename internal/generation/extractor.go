package generation

import (
	"context"
	"encoding/base64"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/easel-cli/api/schemas"
)

const (
	dataURLPrefix = "data:image"
	excerptLimit  = 64
)

// extract classifies and decodes the terminal page state into image bytes.
// The error slot wins over everything; after that the data slot decides
// between the inline data-URL branch, the in-page fetch branch, and an
// unclassifiable payload.
func extract(ctx context.Context, session schemas.PageSession, snapshot schemas.PollSnapshot) (*schemas.GenerationResult, error) {
	if snapshot.Error != "" {
		return nil, failf(GenerationError, "%s", snapshot.Error)
	}

	data, err := readResultData(ctx, session)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, failf(EmptyResult, "generation completed without producing any data")
	}

	switch {
	case strings.HasPrefix(data, dataURLPrefix):
		decoded, err := decodeDataURL(data)
		if err != nil {
			return nil, err
		}
		return &schemas.GenerationResult{Bytes: decoded, Class: schemas.ResultClassDataURL}, nil

	case strings.HasPrefix(data, "http://"), strings.HasPrefix(data, "https://"):
		decoded, err := fetchRemote(ctx, session, data)
		if err != nil {
			return nil, err
		}
		return &schemas.GenerationResult{Bytes: decoded, Class: schemas.ResultClassRemoteURL}, nil

	default:
		return nil, failf(UnknownResultFormat, "unrecognized result payload: %q", excerpt(data, excerptLimit))
	}
}

// readResultData reads the page's data slot as a string.
func readResultData(ctx context.Context, session schemas.PageSession) (string, error) {
	raw, err := session.Evaluate(ctx, resultDataExpression)
	if err != nil {
		return "", wrapf(EmptyResult, err, "could not read the result slot: %v", err)
	}
	var data string
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", failf(UnknownResultFormat, "result slot held a non-string value: %q", excerpt(string(raw), excerptLimit))
	}
	return data, nil
}

// decodeDataURL strips the MIME/encoding header before the first comma and
// base64-decodes the payload.
func decodeDataURL(data string) ([]byte, error) {
	idx := strings.Index(data, ",")
	if idx < 0 {
		return nil, failf(UnknownResultFormat, "data url carries no payload separator: %q", excerpt(data, excerptLimit))
	}
	decoded, err := base64.StdEncoding.DecodeString(data[idx+1:])
	if err != nil {
		return nil, wrapf(UnknownResultFormat, err, "data url payload is not valid base64: %v", err)
	}
	if len(decoded) == 0 {
		return nil, failf(EmptyResult, "data url decoded to zero bytes")
	}
	return decoded, nil
}

// fetchRemote downloads the result URL inside the same page context and
// decodes the base64 body the page hands back.
func fetchRemote(ctx context.Context, session schemas.PageSession, url string) ([]byte, error) {
	raw, err := session.EvaluateAsync(ctx, fetchExpression(url))
	if err != nil {
		return nil, wrapf(FetchFailure, err, "in-page fetch of %s failed: %v", url, err)
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, wrapf(FetchFailure, err, "unexpected fetch payload: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, wrapf(FetchFailure, err, "fetched payload is not valid base64: %v", err)
	}
	if len(decoded) == 0 {
		return nil, failf(FetchFailure, "fetched an empty body from %s", url)
	}
	return decoded, nil
}

// excerpt bounds diagnostic output without splitting multi-byte runes.
func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
