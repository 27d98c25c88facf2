package database

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ardanlabs/provenance/foundation/blockchain/signature"
)

// Set of transaction kinds recorded by the ledger.
const (
	KindAnalysisResult = "analysis-result"
	KindModelMetadata  = "model-metadata"
)

// Default values for analysis results when the caller doesn't know them.
const (
	DefaultUploader = "Guest"
	DefaultLocation = "Unknown"
)

// =============================================================================

// Tx represents one fact recorded on the ledger. The set of fields depends
// on the kind of transaction. Field values must be strings or numbers.
type Tx struct {
	Kind      string         `json:"kind"`
	Fields    map[string]any `json:"fields"`
	TimeStamp uint64         `json:"timestamp"` // Microseconds since the unix epoch.
}

// NewTx constructs a new transaction. The timestamp is left unset, the
// mempool assigns it at submission.
func NewTx(kind string, fields map[string]any) Tx {
	if fields == nil {
		fields = make(map[string]any)
	}

	return Tx{
		Kind:   kind,
		Fields: fields,
	}
}

// Validate checks the transaction carries a kind and only scalar field values.
func (tx Tx) Validate() error {
	if tx.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidTransaction)
	}

	for name, value := range tx.Fields {
		if name == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidTransaction)
		}
		if !isScalar(value) {
			return fmt.Errorf("%w: field %q value %v of type %T is not a string or a number", ErrInvalidTransaction, name, value, value)
		}
	}

	return nil
}

// Clone returns a copy of the transaction that shares no memory with the
// original.
func (tx Tx) Clone() Tx {
	fields := make(map[string]any, len(tx.Fields))
	for k, v := range tx.Fields {
		fields[k] = v
	}
	tx.Fields = fields

	return tx
}

// Hash returns the digest of the transaction's canonical encoding.
func (tx Tx) Hash() string {
	return signature.Hash(tx)
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%d", tx.Kind, tx.TimeStamp)
}

// Now returns the current time in the resolution used by the ledger.
func Now() uint64 {
	return uint64(time.Now().UTC().UnixMicro())
}

// isScalar reports whether the value is a string or a finite number.
func isScalar(value any) bool {
	switch v := value.(type) {
	case string:
		return true
	case json.Number:

		// The encoder refuses number text that isn't a JSON number.
		_, err := json.Marshal(v)
		return err == nil
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	}

	return false
}

// =============================================================================

// AnalysisResult represents the outcome of analyzing an uploaded artifact.
type AnalysisResult struct {
	VideoName     string
	VideoAccuracy int
	AudioAccuracy int
	FileHash      string
	Uploader      string
	Location      string
}

// Tx converts the analysis result into a ledger transaction.
func (ar AnalysisResult) Tx() Tx {
	uploader := ar.Uploader
	if uploader == "" {
		uploader = DefaultUploader
	}

	location := ar.Location
	if location == "" {
		location = DefaultLocation
	}

	return NewTx(KindAnalysisResult, map[string]any{
		"video_name":     ar.VideoName,
		"video_accuracy": ar.VideoAccuracy,
		"audio_accuracy": ar.AudioAccuracy,
		"file_hash":      ar.FileHash,
		"uploader":       uploader,
		"location":       location,
	})
}

// ModelMetadata represents information about the model that produced
// analysis results.
type ModelMetadata struct {
	ModelName string
	Dataset   string
	Version   string
}

// Tx converts the model metadata into a ledger transaction.
func (mm ModelMetadata) Tx() Tx {
	return NewTx(KindModelMetadata, map[string]any{
		"model_name": mm.ModelName,
		"dataset":    mm.Dataset,
		"version":    mm.Version,
	})
}
