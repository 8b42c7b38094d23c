package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest captures what the mock API saw.
type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// newMockAPI serves respBody for every request and records the last one.
func newMockAPI(t *testing.T, status int, respBody string) (*httptest.Server, *recordedRequest, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	rec := &recordedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		rec.Method = r.Method
		rec.Path = r.URL.EscapedPath()
		rec.ContentType = r.Header.Get("Content-Type")
		rec.Body = body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	return srv, rec, &calls
}

func TestUpload_Success(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK,
		`{"name":"publishers/pub1/items/item1","itemId":"item1","crxVersion":"1.2.3","uploadState":"IN_PROGRESS"}`)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}
	path := writeArtifact(t, "a.zip", payload)

	client := newTestClient(t, srv.URL)
	res, err := client.Upload(context.Background(), "item1", path)
	require.NoError(t, err)

	assert.Equal(t, &UploadResult{ItemID: "item1", CrxVersion: "1.2.3", UploadState: UploadStateInProgress}, res)
	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/upload/v2/publishers/pub1/items/item1:upload", rec.Path)

	mediaType, params, err := mime.ParseMediaType(rec.ContentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	mr := multipart.NewReader(bytes.NewReader(rec.Body), params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "a.zip", part.FileName())

	got, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUpload_MissingFileMakesNoRequest(t *testing.T) {
	srv, _, calls := newMockAPI(t, http.StatusOK, `{}`)

	client := newTestClient(t, srv.URL)
	_, err := client.Upload(context.Background(), "item1", "/nonexistent.zip")
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, int32(0), calls.Load())
}

func TestUpload_TokenNotRequestedForInvalidInput(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "pub1", nil, failingToken{}, nil, "")

	_, err := client.Upload(context.Background(), "item1", "/nonexistent.zip")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrAuth)
}

func TestUpload_HTTPError(t *testing.T) {
	srv, _, _ := newMockAPI(t, http.StatusForbidden, `{"error":{"message":"not yours"}}`)
	path := writeArtifact(t, "a.crx", []byte("Cr24"))

	client := newTestClient(t, srv.URL)
	_, err := client.Upload(context.Background(), "item1", path)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "not yours")
}

func TestPublish_DefaultOmitsDeployInfos(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{"itemId":"item1","state":"PENDING_REVIEW"}`)

	client := newTestClient(t, srv.URL)
	res, err := client.Publish(context.Background(), "item1", PublishRequest{PublishType: PublishTypeDefault})
	require.NoError(t, err)

	assert.Equal(t, &PublishResult{ItemID: "item1", State: ItemStatePendingReview}, res)
	assert.Equal(t, "/v2/publishers/pub1/items/item1:publish", rec.Path)
	assert.Equal(t, "application/json", rec.ContentType)
	assert.JSONEq(t, `{"publishType":"DEFAULT_PUBLISH"}`, string(rec.Body))
}

func TestPublish_StagedWithPercentage(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{"itemId":"item1","state":"STAGED"}`)
	pct := 25

	client := newTestClient(t, srv.URL)
	res, err := client.Publish(context.Background(), "item1", PublishRequest{
		PublishType:      PublishTypeStaged,
		SkipReview:       true,
		DeployPercentage: &pct,
	})
	require.NoError(t, err)

	assert.Equal(t, ItemStateStaged, res.State)
	assert.JSONEq(t,
		`{"publishType":"STAGED_PUBLISH","skipReview":true,"deployInfos":[{"deployPercentage":25}]}`,
		string(rec.Body))
}

func TestPublish_ZeroPercentageIsSent(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{"itemId":"item1","state":"PUBLISHED"}`)
	pct := 0

	client := newTestClient(t, srv.URL)
	_, err := client.Publish(context.Background(), "item1", PublishRequest{DeployPercentage: &pct})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body, &body))
	assert.Equal(t, []any{map[string]any{"deployPercentage": float64(0)}}, body["deployInfos"])
}

func TestPublish_InvalidPercentage(t *testing.T) {
	srv, _, calls := newMockAPI(t, http.StatusOK, `{}`)
	pct := 101

	client := newTestClient(t, srv.URL)
	_, err := client.Publish(context.Background(), "item1", PublishRequest{DeployPercentage: &pct})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetchStatus_Normalizes(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{
		"name": "publishers/pub1/items/item1",
		"itemId": "item1",
		"publicKey": "MIIB",
		"publishedItemRevisionStatus": {
			"state": "PUBLISHED",
			"distributionChannels": [
				{"crxVersion": "1.0.0", "deployPercentage": 100},
				{"crxVersion": "1.1.0", "deployPercentage": 10}
			]
		},
		"submittedItemRevisionStatus": {"state": "PENDING_REVIEW"},
		"lastAsyncUploadState": "SUCCEEDED",
		"warned": true
	}`)

	client := newTestClient(t, srv.URL)
	status, err := client.FetchStatus(context.Background(), "item1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.Method)
	assert.Equal(t, "/v2/publishers/pub1/items/item1:fetchStatus", rec.Path)
	assert.Empty(t, rec.Body)

	assert.Equal(t, "item1", status.ItemID)
	assert.Equal(t, "MIIB", status.PublicKey)
	assert.Equal(t, UploadStateSucceeded, status.LastAsyncUploadState)
	assert.True(t, status.Warned)
	assert.False(t, status.TakenDown)

	require.NotNil(t, status.PublishedRevision)
	assert.Equal(t, ItemStatePublished, status.PublishedRevision.State)
	assert.Equal(t, []DistributionChannel{
		{CrxVersion: "1.0.0", DeployPercentage: 100},
		{CrxVersion: "1.1.0", DeployPercentage: 10},
	}, status.PublishedRevision.DistributionChannels)

	require.NotNil(t, status.SubmittedRevision)
	assert.Equal(t, ItemStatePendingReview, status.SubmittedRevision.State)
	assert.Empty(t, status.SubmittedRevision.DistributionChannels)
}

func TestFetchStatus_AbsentRevisions(t *testing.T) {
	srv, _, _ := newMockAPI(t, http.StatusOK, `{"itemId":"item1"}`)

	client := newTestClient(t, srv.URL)
	status, err := client.FetchStatus(context.Background(), "item1")
	require.NoError(t, err)

	assert.Nil(t, status.PublishedRevision)
	assert.Nil(t, status.SubmittedRevision)
	assert.Empty(t, status.LastAsyncUploadState)
}

func TestFetchStatus_EscapesPathSegments(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{}`)

	client := NewClient(srv.URL, "pub/1", http.DefaultClient, staticToken("t"), nil, "")
	_, err := client.FetchStatus(context.Background(), "item 1")
	require.NoError(t, err)

	assert.Equal(t, "/v2/publishers/pub%2F1/items/item%201:fetchStatus", rec.Path)
}

func TestCancelSubmission_SendsEmptyObject(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, ``)

	client := newTestClient(t, srv.URL)
	require.NoError(t, client.CancelSubmission(context.Background(), "item1"))

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/v2/publishers/pub1/items/item1:cancelSubmission", rec.Path)
	assert.JSONEq(t, `{}`, string(rec.Body))
}

func TestSetDeployPercentage_Success(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{}`)

	client := newTestClient(t, srv.URL)
	require.NoError(t, client.SetDeployPercentage(context.Background(), "item1", 50))

	assert.Equal(t, "/v2/publishers/pub1/items/item1:setPublishedDeployPercentage", rec.Path)
	assert.JSONEq(t, `{"deployPercentage":50}`, string(rec.Body))
}

func TestSetDeployPercentage_OutOfRangeMakesNoRequest(t *testing.T) {
	srv, _, calls := newMockAPI(t, http.StatusOK, `{}`)

	client := newTestClient(t, srv.URL)
	err := client.SetDeployPercentage(context.Background(), "item1", 150)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deploy percentage", vErr.Field)
	assert.Equal(t, int32(0), calls.Load())
}

func TestOperations_RejectEmptyItemID(t *testing.T) {
	srv, _, calls := newMockAPI(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := client.FetchStatus(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = client.Publish(ctx, " ", PublishRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, client.CancelSubmission(ctx, ""), ErrValidation)
	assert.ErrorIs(t, client.SetDeployPercentage(ctx, "", 10), ErrValidation)

	assert.Equal(t, int32(0), calls.Load())
}

func TestUpload_FileNameNormalizedToNFC(t *testing.T) {
	srv, rec, _ := newMockAPI(t, http.StatusOK, `{"itemId":"item1","uploadState":"SUCCEEDED"}`)
	// "e" followed by a combining acute accent.
	path := writeArtifact(t, "café.zip", []byte("PK"))

	client := newTestClient(t, srv.URL)
	_, err := client.Upload(context.Background(), "item1", path)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(rec.ContentType)
	require.NoError(t, err)

	part, err := multipart.NewReader(bytes.NewReader(rec.Body), params["boundary"]).NextPart()
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9.zip", part.FileName())
}
