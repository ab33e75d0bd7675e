package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/topic-clipper/internal/media"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o644))
	return path
}

func TestOpenAITranscriberSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "segment", r.FormValue("timestamp_granularities[]"))
		assert.Len(t, r.MultipartForm.File["file"], 1)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":     " Hello there. General Kenobi. ",
			"language": "english",
			"segments": []map[string]interface{}{
				{"id": 0, "start": 0.0, "end": 2.5, "text": " Hello there."},
				{"id": 1, "start": 2.5, "end": 5.0, "text": " General Kenobi."},
			},
		})
	}))
	defer srv.Close()

	tr := NewOpenAITranscriber(srv.URL+"/v1/", "sk-test", "whisper-1", 5*time.Second)
	got, err := tr.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)

	assert.Equal(t, "english", got.Language)
	assert.InDelta(t, 5.0, got.Duration, 1e-9)
	require.Len(t, got.Segments, 2)
	assert.Equal(t, "Hello there.", got.Segments[0].Text)
	assert.Equal(t, "Hello there. General Kenobi.", FullText(got))
}

func TestOpenAITranscriberHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAITranscriber(srv.URL, "nope", "whisper-1", 5*time.Second).
		Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAITranscriberMissingFile(t *testing.T) {
	_, err := NewOpenAITranscriber("http://127.0.0.1:1", "k", "whisper-1", time.Second).
		Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}

// fakeRunner simulates python -m whisper
type fakeRunner struct {
	run func(name string, args []string) (media.CommandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (media.CommandResult, error) {
	return f.run(name, args)
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestWhisperTranscriber(t *testing.T) {
	audio := writeAudio(t)
	var gotArgs []string
	runner := &fakeRunner{run: func(name string, args []string) (media.CommandResult, error) {
		gotArgs = args
		out := WhisperOutput{
			Text:     "one two",
			Language: "en",
			Segments: []WhisperSegment{{Start: 0, End: 1, Text: " one"}, {Start: 1, End: 3.5, Text: " two"}},
		}
		data, _ := json.Marshal(out)
		require.NoError(t, os.WriteFile(filepath.Join(argValue(args, "--output_dir"), "audio.json"), data, 0o644))
		return media.CommandResult{}, nil
	}}

	got, err := NewWhisperTranscriber("models/ggml-base.bin", "auto", runner).Transcribe(context.Background(), audio)
	require.NoError(t, err)

	assert.Equal(t, "base", argValue(gotArgs, "--model"))
	assert.NotContains(t, gotArgs, "--language")
	assert.InDelta(t, 3.5, got.Duration, 1e-9)
	assert.Equal(t, "one two", FullText(got))
	assert.NoDirExists(t, filepath.Join(filepath.Dir(audio), "whisper_output"))
}

func TestWhisperTranscriberFailure(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args []string) (media.CommandResult, error) {
		return media.CommandResult{Stderr: "No module named whisper", ExitCode: 1}, errors.New("exit status 1")
	}}

	_, err := NewWhisperTranscriber("", "en", runner).Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No module named whisper")
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "tiny", modelName("ggml-tiny.en.bin"))
	assert.Equal(t, "large", modelName("LARGE-v3"))
	assert.Equal(t, "small", modelName(""))
}

func TestFullTextFallsBackToText(t *testing.T) {
	assert.Equal(t, "", FullText(nil))
	assert.Equal(t, "whole", FullText(&types.Transcript{Text: " whole "}))
}

func TestWriteTranscriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 65.7, Text: " intro "},
		{Start: 65.7, End: 130, Text: "main"},
	}}

	require.NoError(t, WriteTranscriptFile(path, tr))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Start: 0:00, End: 1:05, Text: intro\nStart: 1:05, End: 2:10, Text: main\n", string(data))
}
