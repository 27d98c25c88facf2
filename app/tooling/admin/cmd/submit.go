package cmd

import (
	"github.com/ardanlabs/provenance/business/web/errs"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type submitted struct {
	Status string `json:"status"`
	Block  uint64 `json:"block"`
}

var (
	videoName     string
	videoAccuracy int
	audioAccuracy int
	fileHash      string
	uploader      string
	location      string

	modelName    string
	dataset      string
	modelVersion string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a transaction to the node.",
}

var submitAnalysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Submit an analysis result.",
	RunE:  submitAnalysisRun,
}

var submitModelCmd = &cobra.Command{
	Use:   "model",
	Short: "Submit model metadata.",
	RunE:  submitModelRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.AddCommand(submitAnalysisCmd)
	submitCmd.AddCommand(submitModelCmd)

	submitAnalysisCmd.Flags().StringVarP(&videoName, "name", "n", "", "Name of the analyzed video.")
	submitAnalysisCmd.Flags().IntVar(&videoAccuracy, "video", 0, "Video score 0-100.")
	submitAnalysisCmd.Flags().IntVar(&audioAccuracy, "audio", 0, "Audio score 0-100.")
	submitAnalysisCmd.Flags().StringVar(&fileHash, "hash", "", "Content fingerprint of the video.")
	submitAnalysisCmd.Flags().StringVar(&uploader, "uploader", "", "Who uploaded the video.")
	submitAnalysisCmd.Flags().StringVar(&location, "location", "", "Where the video was uploaded.")

	submitModelCmd.Flags().StringVarP(&modelName, "name", "n", "Deepfake Detector v1.0", "Name of the model.")
	submitModelCmd.Flags().StringVar(&dataset, "dataset", "DFDC", "Dataset the model was trained on.")
	submitModelCmd.Flags().StringVar(&modelVersion, "version", "1.0", "Version of the model.")
}

func submitAnalysisRun(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"video_name":     videoName,
		"video_accuracy": videoAccuracy,
		"audio_accuracy": audioAccuracy,
		"file_hash":      fileHash,
		"uploader":       uploader,
		"location":       location,
	}

	return submit("/v1/tx/analysis", body)
}

func submitModelRun(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"model_name": modelName,
		"dataset":    dataset,
		"version":    modelVersion,
	}

	return submit("/v1/tx/model", body)
}

func submit(path string, body any) error {
	var result submitted
	resp, err := client().R().
		SetBody(body).
		SetResult(&result).
		SetError(&errs.Response{}).
		Post(path)
	if err := checkResponse(resp, err); err != nil {
		return err
	}

	pterm.Success.Printfln("%s, will be sealed into block %d", result.Status, result.Block)

	return nil
}
