package store

// PublishType selects how a publish request takes effect.
type PublishType string

// Publish types, in the API's wire spelling.
const (
	PublishTypeDefault PublishType = "DEFAULT_PUBLISH"
	PublishTypeStaged  PublishType = "STAGED_PUBLISH"
)

// ItemState is the review/rollout state of an item revision.
type ItemState string

// Known revision states. The API may add more; unknown values are kept as-is.
const (
	ItemStatePendingReview      ItemState = "PENDING_REVIEW"
	ItemStateStaged             ItemState = "STAGED"
	ItemStatePublished          ItemState = "PUBLISHED"
	ItemStatePublishedToTesters ItemState = "PUBLISHED_TO_TESTERS"
	ItemStateRejected           ItemState = "REJECTED"
	ItemStateCancelled          ItemState = "CANCELLED"
)

// UploadState is the state of the server-side asynchronous upload job.
type UploadState string

// Known upload states.
const (
	UploadStateSucceeded  UploadState = "SUCCEEDED"
	UploadStateInProgress UploadState = "IN_PROGRESS"
	UploadStateFailed     UploadState = "FAILED"
	UploadStateNotFound   UploadState = "NOT_FOUND"
)

// PublishRequest describes a publish call. DeployPercentage is sent only when
// non-nil, i.e. when the caller asks for a non-default rollout.
type PublishRequest struct {
	SkipReview       bool
	PublishType      PublishType
	DeployPercentage *int
}

// UploadResult is the response to an upload.
type UploadResult struct {
	ItemID      string
	CrxVersion  string
	UploadState UploadState
}

// PublishResult is the response to a publish.
type PublishResult struct {
	ItemID string
	State  ItemState
}

// DistributionChannel is one rollout channel of a revision.
type DistributionChannel struct {
	CrxVersion       string
	DeployPercentage int
}

// RevisionStatus describes a published or submitted revision.
type RevisionStatus struct {
	State                ItemState
	DistributionChannels []DistributionChannel
}

// ItemStatus is a snapshot of an item's state as returned by fetchStatus.
// Fields are normalized from the API response and rebuilt on every fetch.
type ItemStatus struct {
	Name                 string
	ItemID               string
	PublicKey            string
	PublishedRevision    *RevisionStatus // nil if the item was never published
	SubmittedRevision    *RevisionStatus // nil if nothing is under review
	LastAsyncUploadState UploadState     // empty if no async upload is known
	Warned               bool
	TakenDown            bool
}
