package store

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// boundaryBytes is the number of random bytes in a multipart boundary.
// 30 bytes (60 hex chars) makes a collision with file content negligible;
// the encoder does not scan the payload to enforce it.
const boundaryBytes = 30

// formFieldName is the multipart field the upload endpoint expects.
const formFieldName = "file"

// EncodeMultipart builds a multipart/form-data body holding a single binary
// part named "file". It returns the body and the matching Content-Type
// header value. data is copied verbatim.
func EncodeMultipart(fileName string, data []byte) ([]byte, string, error) {
	boundary, err := newBoundary()
	if err != nil {
		return nil, "", fmt.Errorf("store: generating multipart boundary: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 4*boundaryBytes + len(fileName) + 256)

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("store: setting multipart boundary: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formFieldName, fileName))
	header.Set("Content-Type", "application/octet-stream")

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("store: creating multipart part: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("store: writing multipart part: %w", err)
	}

	// Close writes the terminating boundary.
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("store: closing multipart body: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

func newBoundary() (string, error) {
	b := make([]byte, boundaryBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
