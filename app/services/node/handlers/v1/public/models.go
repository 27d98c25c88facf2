package public

import (
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
)

// newAnalysis is the payload for submitting an analysis result.
type newAnalysis struct {
	VideoName     string `json:"video_name" validate:"required"`
	VideoAccuracy int    `json:"video_accuracy" validate:"gte=0,lte=100"`
	AudioAccuracy int    `json:"audio_accuracy" validate:"gte=0,lte=100"`
	FileHash      string `json:"file_hash" validate:"required,hexadecimal"`
	Uploader      string `json:"uploader"`
	Location      string `json:"location"`
}

func (na newAnalysis) toAnalysisResult() database.AnalysisResult {
	return database.AnalysisResult{
		VideoName:     na.VideoName,
		VideoAccuracy: na.VideoAccuracy,
		AudioAccuracy: na.AudioAccuracy,
		FileHash:      na.FileHash,
		Uploader:      na.Uploader,
		Location:      na.Location,
	}
}

// newModel is the payload for submitting model metadata.
type newModel struct {
	ModelName string `json:"model_name" validate:"required"`
	Dataset   string `json:"dataset" validate:"required"`
	Version   string `json:"version" validate:"required"`
}

func (nm newModel) toModelMetadata() database.ModelMetadata {
	return database.ModelMetadata{
		ModelName: nm.ModelName,
		Dataset:   nm.Dataset,
		Version:   nm.Version,
	}
}

// sealRequest is the payload for sealing a block. An empty proof asks the
// sealing strategy to produce one.
type sealRequest struct {
	Proof string `json:"proof"`
}

// submitted is the response for an accepted transaction.
type submitted struct {
	Status string `json:"status"`
	Block  uint64 `json:"block"`
}

// pending is the response for the pending transactions.
type pending struct {
	Count int           `json:"count"`
	Trans []database.Tx `json:"trans"`
}

// verified is the response for a chain verification.
type verified struct {
	Valid         bool   `json:"valid"`
	Height        uint64 `json:"height"`
	FirstBadIndex uint64 `json:"first_bad_index,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Expected      string `json:"expected,omitempty"`
	Actual        string `json:"actual,omitempty"`
}
