package validate_test

import (
	"testing"

	"github.com/ardanlabs/provenance/business/sys/validate"
	"github.com/stretchr/testify/require"
)

type analysis struct {
	VideoName     string `json:"video_name" validate:"required"`
	VideoAccuracy int    `json:"video_accuracy" validate:"gte=0,lte=100"`
}

func TestCheck(t *testing.T) {
	require.NoError(t, validate.Check(analysis{VideoName: "clip.mp4", VideoAccuracy: 80}))

	err := validate.Check(analysis{VideoAccuracy: 101})
	require.True(t, validate.IsFieldErrors(err))

	fields := validate.GetFieldErrors(err).Fields()
	require.Contains(t, fields, "video_name")
	require.Contains(t, fields, "video_accuracy")
}
