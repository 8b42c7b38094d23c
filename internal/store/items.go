package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Wire types for the v2 API JSON.

type uploadResponse struct {
	Name        string `json:"name"`
	ItemID      string `json:"itemId"`
	CrxVersion  string `json:"crxVersion"`
	UploadState string `json:"uploadState"`
}

type publishRequestBody struct {
	PublishType PublishType  `json:"publishType,omitempty"`
	DeployInfos []deployInfo `json:"deployInfos,omitempty"`
	SkipReview  bool         `json:"skipReview,omitempty"`
}

type deployInfo struct {
	DeployPercentage int `json:"deployPercentage"`
}

type publishResponse struct {
	Name   string `json:"name"`
	ItemID string `json:"itemId"`
	State  string `json:"state"`
}

type itemStatusResponse struct {
	Name                        string                  `json:"name"`
	ItemID                      string                  `json:"itemId"`
	PublicKey                   string                  `json:"publicKey"`
	PublishedItemRevisionStatus *revisionStatusResponse `json:"publishedItemRevisionStatus"`
	SubmittedItemRevisionStatus *revisionStatusResponse `json:"submittedItemRevisionStatus"`
	LastAsyncUploadState        string                  `json:"lastAsyncUploadState"`
	Warned                      bool                    `json:"warned"`
	TakenDown                   bool                    `json:"takenDown"`
}

type revisionStatusResponse struct {
	State                string                        `json:"state"`
	DistributionChannels []distributionChannelResponse `json:"distributionChannels"`
}

type distributionChannelResponse struct {
	CrxVersion       string `json:"crxVersion"`
	DeployPercentage int    `json:"deployPercentage"`
}

type setDeployPercentageBody struct {
	DeployPercentage int `json:"deployPercentage"`
}

// itemPath builds /v2/publishers/{pub}/items/{item}:{verb}.
func (c *Client) itemPath(itemID, verb string) string {
	return fmt.Sprintf("/v2/publishers/%s/items/%s:%s",
		url.PathEscape(c.publisherID), url.PathEscape(itemID), verb)
}

// uploadPath builds the media upload path, which lives under /upload.
func (c *Client) uploadPath(itemID string) string {
	return "/upload" + c.itemPath(itemID, "upload")
}

// Upload sends the package at filePath as the new draft of itemID.
// The file is validated before any network activity and read fully into
// memory. The server may finish processing asynchronously, in which case
// UploadState is IN_PROGRESS and the caller can use Poller.
func (c *Client) Upload(ctx context.Context, itemID, filePath string) (*UploadResult, error) {
	if err := validateItemID(itemID); err != nil {
		return nil, err
	}

	info, err := ValidateArtifact(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", filePath, err)
	}

	// macOS file systems hand back NFD names; the store sees NFC.
	body, contentType, err := EncodeMultipart(norm.NFC.String(filepath.Base(filePath)), data)
	if err != nil {
		return nil, err
	}

	c.logger.Info("uploading package",
		slog.String("item_id", itemID),
		slog.String("file", filePath),
		slog.Int64("size", info.Size()),
	)

	raw, err := c.Do(ctx, http.MethodPost, c.uploadPath(itemID), contentType, body)
	if err != nil {
		return nil, err
	}

	var ur uploadResponse
	if err := decodeRaw(raw, &ur); err != nil {
		return nil, fmt.Errorf("store: decoding upload response: %w", err)
	}

	result := &UploadResult{
		ItemID:      ur.ItemID,
		CrxVersion:  ur.CrxVersion,
		UploadState: UploadState(ur.UploadState),
	}

	c.logger.Info("upload accepted",
		slog.String("item_id", itemID),
		slog.String("upload_state", string(result.UploadState)),
		slog.String("crx_version", result.CrxVersion),
	)

	return result, nil
}

// Publish submits the current draft of itemID for publication.
func (c *Client) Publish(ctx context.Context, itemID string, req PublishRequest) (*PublishResult, error) {
	if err := validateItemID(itemID); err != nil {
		return nil, err
	}

	body := publishRequestBody{
		PublishType: req.PublishType,
		SkipReview:  req.SkipReview,
	}

	if req.DeployPercentage != nil {
		if err := ValidateDeployPercentage(*req.DeployPercentage); err != nil {
			return nil, err
		}

		body.DeployInfos = []deployInfo{{DeployPercentage: *req.DeployPercentage}}
	}

	c.logger.Info("publishing item",
		slog.String("item_id", itemID),
		slog.String("publish_type", string(req.PublishType)),
		slog.Bool("skip_review", req.SkipReview),
	)

	var pr publishResponse
	if err := c.doJSON(ctx, http.MethodPost, c.itemPath(itemID, "publish"), body, &pr); err != nil {
		return nil, err
	}

	return &PublishResult{ItemID: pr.ItemID, State: ItemState(pr.State)}, nil
}

// FetchStatus returns a fresh status snapshot for itemID.
func (c *Client) FetchStatus(ctx context.Context, itemID string) (*ItemStatus, error) {
	if err := validateItemID(itemID); err != nil {
		return nil, err
	}

	var sr itemStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.itemPath(itemID, "fetchStatus"), nil, &sr); err != nil {
		return nil, err
	}

	status := sr.toItemStatus()

	c.logger.Debug("fetched item status",
		slog.String("item_id", itemID),
		slog.String("upload_state", string(status.LastAsyncUploadState)),
	)

	return status, nil
}

// CancelSubmission withdraws the revision currently under review.
func (c *Client) CancelSubmission(ctx context.Context, itemID string) error {
	if err := validateItemID(itemID); err != nil {
		return err
	}

	c.logger.Info("canceling submission", slog.String("item_id", itemID))

	return c.doJSON(ctx, http.MethodPost, c.itemPath(itemID, "cancelSubmission"), struct{}{}, nil)
}

// SetDeployPercentage changes the rollout percentage of the published
// revision. pct must be within [0, 100].
func (c *Client) SetDeployPercentage(ctx context.Context, itemID string, pct int) error {
	if err := validateItemID(itemID); err != nil {
		return err
	}

	if err := ValidateDeployPercentage(pct); err != nil {
		return err
	}

	c.logger.Info("setting deploy percentage",
		slog.String("item_id", itemID),
		slog.Int("percentage", pct),
	)

	return c.doJSON(ctx, http.MethodPost, c.itemPath(itemID, "setPublishedDeployPercentage"),
		setDeployPercentageBody{DeployPercentage: pct}, nil)
}

func (r *itemStatusResponse) toItemStatus() *ItemStatus {
	return &ItemStatus{
		Name:                 r.Name,
		ItemID:               r.ItemID,
		PublicKey:            r.PublicKey,
		PublishedRevision:    r.PublishedItemRevisionStatus.toRevisionStatus(),
		SubmittedRevision:    r.SubmittedItemRevisionStatus.toRevisionStatus(),
		LastAsyncUploadState: UploadState(r.LastAsyncUploadState),
		Warned:               r.Warned,
		TakenDown:            r.TakenDown,
	}
}

func (r *revisionStatusResponse) toRevisionStatus() *RevisionStatus {
	if r == nil {
		return nil
	}

	channels := make([]DistributionChannel, 0, len(r.DistributionChannels))
	for _, ch := range r.DistributionChannels {
		channels = append(channels, DistributionChannel{
			CrxVersion:       ch.CrxVersion,
			DeployPercentage: ch.DeployPercentage,
		})
	}

	return &RevisionStatus{
		State:                ItemState(r.State),
		DistributionChannels: channels,
	}
}
