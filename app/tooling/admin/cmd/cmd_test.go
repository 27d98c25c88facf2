package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/database/storage"
	"github.com/ardanlabs/provenance/foundation/blockchain/genesis"
	"github.com/stretchr/testify/require"
)

func writeGenesis(t *testing.T, dir string) string {
	path := filepath.Join(dir, "genesis.json")
	data, err := json.Marshal(genesis.Default())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	return path
}

func writeChain(t *testing.T, path string) {
	serializer, err := storage.NewFile(path)
	require.NoError(t, err)
	defer serializer.Close()

	db, err := database.New(genesis.Default(), serializer, nil)
	require.NoError(t, err)

	latest, err := db.LatestBlock()
	require.NoError(t, err)

	tx := database.AnalysisResult{VideoName: "clip.mp4", VideoAccuracy: 80, AudioAccuracy: 60, FileHash: "abc123"}.Tx()
	tx.TimeStamp = database.Now()
	require.NoError(t, db.Add(database.NewBlock(latest, []database.Tx{tx}, "12345")))
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()

	genesisPath = writeGenesis(t, dir)
	storageKind = storage.KindFile
	dbPath = filepath.Join(dir, "blocks.db")
	writeChain(t, dbPath)

	rootCmd.SetArgs([]string{"verify", "--db", dbPath, "--genesis", genesisPath})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"blocks", "--db", dbPath, "--genesis", genesisPath})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte(`"video_accuracy":80`), []byte(`"video_accuracy":10`), 1)
	require.NoError(t, os.WriteFile(dbPath, data, 0600))

	rootCmd.SetArgs([]string{"verify", "--db", dbPath, "--genesis", genesisPath})
	require.Error(t, rootCmd.Execute())
}

func TestFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0600))

	rootCmd.SetArgs([]string{"fingerprint", path})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"fingerprint", filepath.Join(t.TempDir(), "missing.mp4")})
	require.Error(t, rootCmd.Execute())
}

func TestSubmitAndSeal(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/tx/analysis":
			json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"status":"added","block":2}`))

		case "/v1/tx/model":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"data validation error","fields":{"dataset":"dataset is a required field"}}`))

		case "/v1/blocks/seal":
			prev := database.NewGenesisBlock(genesis.Default())
			block := database.NewBlock(prev, nil, "12345")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(database.NewBlockData(block))
		}
	}))
	defer srv.Close()

	rootCmd.SetArgs([]string{"submit", "analysis", "--url", srv.URL, "--name", "clip.mp4", "--video", "80", "--audio", "60", "--hash", "abc123"})
	require.NoError(t, rootCmd.Execute())
	require.Equal(t, "clip.mp4", got["video_name"])
	require.Equal(t, float64(80), got["video_accuracy"])

	rootCmd.SetArgs([]string{"submit", "model", "--url", srv.URL, "--dataset", ""})
	require.ErrorContains(t, rootCmd.Execute(), "data validation error")

	rootCmd.SetArgs([]string{"seal", "--url", srv.URL})
	require.NoError(t, rootCmd.Execute())
}
