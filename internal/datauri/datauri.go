// Package datauri encodes and decodes the only binary transport the flows
// accept: "data:<mimetype>;base64,<payload>".
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrInvalid = errors.New("invalid data URI")

type Data struct {
	MIMEType string
	Bytes    []byte
}

// Parse decodes uri. The MIME type is mandatory and the payload must be
// base64; URL-safe base64 is tolerated.
func Parse(uri string) (Data, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Data{}, fmt.Errorf("%w: missing data: prefix", ErrInvalid)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Data{}, fmt.Errorf("%w: missing payload", ErrInvalid)
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return Data{}, fmt.Errorf("%w: payload must be base64 encoded", ErrInvalid)
	}
	// Parameters such as MediaRecorder's ";codecs=opus" are not part of the type.
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return Data{}, fmt.Errorf("%w: missing MIME type", ErrInvalid)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return Data{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if len(data) == 0 {
		return Data{}, fmt.Errorf("%w: empty payload", ErrInvalid)
	}
	return Data{MIMEType: strings.ToLower(mimeType), Bytes: data}, nil
}

// Encode is the inverse of Parse. A missing or generic mimeType is sniffed
// from the content.
func Encode(mimeType string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = DetectMIMEType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func DetectMIMEType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}
