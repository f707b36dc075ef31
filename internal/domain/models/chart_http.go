package models

// Requests for chart HTTP endpoints. Defined in domain for consistency and reuse.

type SnapshotRequest struct {
	From       int64   `query:"from" json:"from" validate:"gte=0"`
	To         int64   `query:"to" json:"to" validate:"gte=0"`
	BucketSize float64 `query:"bucket_size" json:"bucket_size" validate:"gte=0"`
}

type InstrumentRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=5,max=20"`
}

type SettingsRequest struct {
	BucketSize float64 `query:"bucket_size" json:"bucket_size" validate:"gte=0"`
	TickSize   float64 `query:"tick_size" json:"tick_size" validate:"gte=0"`
}
